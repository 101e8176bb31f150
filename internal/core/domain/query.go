package domain

import (
	"strings"
	"time"
)

// Top-k bounds enforced before any external call is made.
const (
	MinTopK = 1
	MaxTopK = 100

	// DefaultTopK is applied by NewQueryRequest, not by validation:
	// an explicit zero still fails Validate.
	DefaultTopK = 5
)

// QueryRequest is a natural-language query with retrieval parameters and
// optional metadata filters.
type QueryRequest struct {
	// QueryText is the natural-language question. Must be non-blank.
	QueryText string

	// TopK is the number of results to retrieve, in [1,100].
	TopK int

	// MinScore, when set, is a similarity floor in [0,1] applied by the
	// vector index.
	MinScore *float64

	// Filters maps payload fields to required values. A slice value means
	// "any of these" for that field; multiple fields combine with AND.
	Filters map[string]any

	// QueryEmbedding is populated during processing, never by the caller.
	QueryEmbedding []float32

	// CreatedAt is when the request was constructed.
	CreatedAt time.Time
}

// NewQueryRequest builds a request with the default top-k.
func NewQueryRequest(queryText string) QueryRequest {
	return QueryRequest{
		QueryText: queryText,
		TopK:      DefaultTopK,
		CreatedAt: time.Now(),
	}
}

// Validate checks the request arguments. It performs no I/O: a request that
// fails here has cost nothing against external services.
func (r QueryRequest) Validate() error {
	if strings.TrimSpace(r.QueryText) == "" {
		return ErrEmptyQuery
	}
	if r.TopK < MinTopK || r.TopK > MaxTopK {
		return ErrTopKRange
	}
	if r.MinScore != nil && (*r.MinScore < 0.0 || *r.MinScore > 1.0) {
		return ErrMinScoreRange
	}
	return nil
}

// RetrievalResult is the output of one query: the retrieved chunks in the
// rank order returned by the index, their scores, and timing metadata.
// One instance per query; treated as immutable once built.
type RetrievalResult struct {
	// Request is the query that produced this result, including the
	// embedding generated during processing.
	Request QueryRequest

	// Chunks are the retrieved chunks. Rank order is the index's returned
	// order; the core never re-sorts.
	Chunks []RetrievedChunk

	// Scores parallels Chunks.
	Scores []float64

	// RetrievalTimeMS is the wall-clock duration of the search call only.
	// Embedding generation time is excluded.
	RetrievalTimeMS float64

	// TotalCandidates is the number of hits the index returned before
	// assembly.
	TotalCandidates int

	// FiltersApplied echoes the caller's filter mapping.
	FiltersApplied map[string]any

	// ValidationMetrics is empty at construction. Validation is a separate
	// opt-in step and never mutates this result; the field exists for
	// callers that want to attach metrics themselves.
	ValidationMetrics map[string]float64
}
