package driven

import "context"

// ChunkPayload is the typed record stored alongside each vector. It is
// constructed once at the adapter boundary; missing payload fields decode to
// zero values (empty string, 0, nil map), so the core never performs
// defensive lookups.
type ChunkPayload struct {
	Text       string         `json:"text_content"`
	SourceURL  string         `json:"source_url"`
	PageTitle  string         `json:"page_title"`
	ChunkIndex int            `json:"chunk_index"`
	CreatedAt  string         `json:"created_at"`
	Metadata   map[string]any `json:"metadata"`
}

// VectorPoint is a (vector, payload) pair for insertion.
type VectorPoint struct {
	// ID is the point identifier. Qdrant requires a UUID or unsigned
	// integer; adapters derive stable UUIDs from chunk ids.
	ID string

	Vector  []float32
	Payload ChunkPayload
}

// VectorHit is one nearest-neighbour search result.
type VectorHit struct {
	ID      string
	Score   float64
	Payload ChunkPayload
}

// ScalarRange is an inclusive numeric range condition.
type ScalarRange struct {
	GTE float64
	LTE float64
}

// FieldCondition constrains one payload field. Exactly one of Match,
// MatchAny or Range is set.
type FieldCondition struct {
	Field string

	// Match requires equality with a single value.
	Match any

	// MatchAny requires membership in a set of values (OR within the field).
	MatchAny []any

	// Range requires the field to lie in an inclusive numeric range.
	Range *ScalarRange
}

// Filter is a conjunction of field conditions (AND across fields).
type Filter struct {
	Must []FieldCondition
}

// SearchQuery describes one filtered nearest-neighbour search.
type SearchQuery struct {
	Vector []float32

	// TopK bounds the number of hits returned.
	TopK int

	// Filter, when non-nil, restricts candidates by payload fields.
	Filter *Filter

	// MinScore, when non-nil, is a similarity floor applied server-side.
	MinScore *float64
}

// VectorIndex stores (vector, payload) pairs and supports filtered
// nearest-neighbour search. Backed by a remote vector database; the adapter
// owns the wire protocol.
type VectorIndex interface {
	// EnsureCollection creates the collection for the given vector
	// dimension if it does not already exist.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert inserts or replaces points.
	Upsert(ctx context.Context, points []VectorPoint) error

	// Search returns up to q.TopK hits ordered by decreasing similarity.
	// The returned order is the index's rank order; callers must not
	// re-sort.
	Search(ctx context.Context, q SearchQuery) ([]VectorHit, error)

	// DeleteByParent removes all points whose payload metadata records the
	// given parent document id. Used when a page is re-ingested.
	DeleteByParent(ctx context.Context, parentID string) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
