// Package qdrant provides a vector index adapter backed by Qdrant's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultCollection = "book_content"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant base URL (required), e.g. https://host:6333.
	URL string

	// APIKey authenticates requests. Optional for local instances.
	APIKey string

	// Collection is the collection name (default: book_content).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index is a REST client for one Qdrant collection. Vectors use cosine
// distance; payloads store the chunk record with its ingestion metadata
// nested under "metadata".
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// NewIndex creates a Qdrant index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}, nil
}

// Collection returns the collection name this index operates on.
func (x *Index) Collection() string {
	return x.collection
}

// EnsureCollection creates the collection with cosine distance if it does
// not already exist. An existing collection is left untouched, whatever its
// schema; dimension mismatches surface as upsert errors.
func (x *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("qdrant: invalid dimension %d", dimensions)
	}

	status, err := x.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", x.collection), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("qdrant: unexpected status %d checking collection", status)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	status, err = x.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", x.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: create collection failed with status %d", status)
	}
	return nil
}

// Upsert inserts or replaces points, waiting for the write to be applied.
func (x *Index) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	wire := make([]map[string]any, len(points))
	for i, p := range points {
		wire[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": wire}

	status, err := x.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", x.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: upsert failed with status %d", status)
	}
	return nil
}

// searchResponse is the points/search response format.
type searchResponse struct {
	Result []struct {
		ID      any                 `json:"id"`
		Score   float64             `json:"score"`
		Payload driven.ChunkPayload `json:"payload"`
	} `json:"result"`
}

// Search runs a filtered nearest-neighbour query. Hits come back in Qdrant's
// rank order.
func (x *Index) Search(ctx context.Context, q driven.SearchQuery) ([]driven.VectorHit, error) {
	body := map[string]any{
		"vector":       q.Vector,
		"limit":        q.TopK,
		"with_payload": true,
	}
	if q.MinScore != nil {
		body["score_threshold"] = *q.MinScore
	}
	if f := wireFilter(q.Filter); f != nil {
		body["filter"] = f
	}

	var resp searchResponse
	status, err := x.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", x.collection), body, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: search failed with status %d", status)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, driven.VectorHit{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return hits, nil
}

// DeleteByParent removes every point ingested from the given parent page.
func (x *Index) DeleteByParent(ctx context.Context, parentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "metadata.parent_id",
					"match": map[string]any{"value": parentID},
				},
			},
		},
	}
	status, err := x.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", x.collection), body, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: delete failed with status %d", status)
	}
	return nil
}

// countResponse is the points/count response format.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// Count returns the exact number of stored points.
func (x *Index) Count(ctx context.Context) (int, error) {
	var resp countResponse
	status, err := x.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", x.collection), map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, fmt.Errorf("qdrant: count failed with status %d", status)
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (x *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// wireFilter translates the port's filter into Qdrant's filter JSON.
func wireFilter(f *driven.Filter) map[string]any {
	if f == nil || len(f.Must) == 0 {
		return nil
	}

	must := make([]map[string]any, 0, len(f.Must))
	for _, cond := range f.Must {
		wire := map[string]any{"key": cond.Field}
		switch {
		case cond.MatchAny != nil:
			wire["match"] = map[string]any{"any": cond.MatchAny}
		case cond.Range != nil:
			wire["range"] = map[string]any{"gte": cond.Range.GTE, "lte": cond.Range.LTE}
		default:
			wire["match"] = map[string]any{"value": cond.Match}
		}
		must = append(must, wire)
	}
	return map[string]any{"must": must}
}

// do sends one JSON request and decodes the response into out when given.
// The returned status lets callers treat 404 as a signal rather than an
// error.
func (x *Index) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
