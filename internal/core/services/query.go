package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

// QueryService turns a natural-language question into a ranked, filtered
// retrieval result. The pipeline is strictly sequential with no retries:
// validate, embed, search, assemble. A failure at any stage aborts the whole
// query; the caller decides whether to run it again.
type QueryService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewQueryService creates a query service over the given ports.
func NewQueryService(embedder driven.EmbeddingService, index driven.VectorIndex) *QueryService {
	return &QueryService{
		embedder: embedder,
		index:    index,
	}
}

// Process runs one query through the retrieval pipeline.
//
// Validation happens before any external call: an invalid request costs
// nothing against the embedding service or the index. Embedding and search
// failures propagate unchanged. The returned result's ValidationMetrics is
// empty; validation is a separate opt-in step.
func (s *QueryService) Process(ctx context.Context, req domain.QueryRequest) (*domain.RetrievalResult, error) {
	logger.Section("Query Processing")
	logger.Debug("Query: %q, top_k=%d", req.QueryText, req.TopK)

	if err := req.Validate(); err != nil {
		logger.Warn("Request rejected: %v", err)
		return nil, err
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	logger.Debug("Generating query embedding with model %s", s.embedder.ModelName())
	embedding, err := s.embedder.Embed(ctx, req.QueryText, driven.IntentQuery)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	req.QueryEmbedding = embedding
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	query := driven.SearchQuery{
		Vector:   embedding,
		TopK:     req.TopK,
		Filter:   buildFilter(req.Filters),
		MinScore: req.MinScore,
	}

	// Only the search call is timed; embedding time is excluded from
	// RetrievalTimeMS.
	searchStart := time.Now()
	hits, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	searchMS := float64(time.Since(searchStart)) / float64(time.Millisecond)
	logger.Debug("Search returned %d hits in %.2fms", len(hits), searchMS)

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	scores := make([]float64, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, assembleChunk(hit))
		scores = append(scores, hit.Score)
	}

	result := &domain.RetrievalResult{
		Request:           req,
		Chunks:            chunks,
		Scores:            scores,
		RetrievalTimeMS:   searchMS,
		TotalCandidates:   len(hits),
		FiltersApplied:    req.Filters,
		ValidationMetrics: map[string]float64{},
	}

	logger.Info("Retrieved %d chunks in %.2fms", len(chunks), searchMS)
	return result, nil
}

// assembleChunk maps one raw hit into a RetrievedChunk. The typed payload
// already carries zero values for fields the index did not store, so nothing
// here can nil-propagate.
func assembleChunk(hit driven.VectorHit) domain.RetrievedChunk {
	created, _ := time.Parse(time.RFC3339, hit.Payload.CreatedAt)
	return domain.RetrievedChunk{
		ContentChunk: domain.ContentChunk{
			ID:         hit.ID,
			Text:       hit.Payload.Text,
			SourceURL:  hit.Payload.SourceURL,
			PageTitle:  hit.Payload.PageTitle,
			ChunkIndex: hit.Payload.ChunkIndex,
			CreatedAt:  created,
			Metadata:   hit.Payload.Metadata,
		},
		RelevanceScore: hit.Score,
	}
}

// buildFilter translates the caller's filter mapping into index conditions.
// Each field becomes one condition; fields combine with AND. A slice value
// means "any of these values" for that field.
//
// Numeric values translate to an inclusive point range (gte = lte = value)
// rather than equality. Filtering a float field therefore only matches
// bit-identical stored values; callers filtering on numerics should use
// integers they stored themselves.
func buildFilter(filters map[string]any) *driven.Filter {
	if len(filters) == 0 {
		return nil
	}

	f := &driven.Filter{Must: make([]driven.FieldCondition, 0, len(filters))}
	for field, value := range filters {
		cond := driven.FieldCondition{Field: field}
		switch v := value.(type) {
		case []any:
			cond.MatchAny = v
		case []string:
			vals := make([]any, len(v))
			for i, s := range v {
				vals[i] = s
			}
			cond.MatchAny = vals
		case int:
			cond.Range = &driven.ScalarRange{GTE: float64(v), LTE: float64(v)}
		case int64:
			cond.Range = &driven.ScalarRange{GTE: float64(v), LTE: float64(v)}
		case float64:
			cond.Range = &driven.ScalarRange{GTE: v, LTE: v}
		default:
			cond.Match = v
		}
		f.Must = append(f.Must, cond)
	}
	return f
}
