package driven

import "context"

// EmbedIntent tells the embedding service which side of an asymmetric
// embedding space a text belongs to. Document-side and query-side vectors
// must come from the same model to stay comparable; only the intent flag
// differs.
type EmbedIntent string

const (
	// IntentDocument marks ingestion-side texts.
	IntentDocument EmbedIntent = "search_document"

	// IntentQuery marks query-side texts.
	IntentQuery EmbedIntent = "search_query"
)

// EmbeddingService converts text into fixed-dimension vectors.
//
// Implementations must preserve input order and count: len(output) equals
// len(input), and every vector in one call shares the same dimension. A
// dimension mismatch within a call fails the whole call. The service itself
// performs no retry; transient-fault handling belongs to callers outside the
// retrieval core.
type EmbeddingService interface {
	// Embed generates one vector for a single text.
	Embed(ctx context.Context, text string, intent EmbedIntent) ([]float32, error)

	// EmbedBatch generates vectors for many texts, splitting oversized
	// input into sub-batches to respect the provider's request limit.
	// Results are concatenated in input order. A failing sub-batch aborts
	// the whole operation; no partial results are returned. Empty input
	// yields empty output, not an error.
	EmbedBatch(ctx context.Context, texts []string, intent EmbedIntent) ([][]float32, error)

	// Dimensions returns the embedding vector size for the configured model.
	Dimensions() int

	// ModelName returns the embedding model identifier. Ingestion and
	// query must report the same name to share a vector space.
	ModelName() string

	// Ping verifies the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
