package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
)

// mockDocumentStore implements driven.DocumentStore for testing.
type mockDocumentStore struct {
	byURL      map[string]driven.PageRecord
	saved      []driven.PageRecord
	deletedIDs []string
	lookupErr  error
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{byURL: map[string]driven.PageRecord{}}
}

func (m *mockDocumentStore) SavePage(_ context.Context, rec driven.PageRecord) error {
	m.saved = append(m.saved, rec)
	m.byURL[rec.SourceURL] = rec
	return nil
}

func (m *mockDocumentStore) PageByURL(_ context.Context, url string) (*driven.PageRecord, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if rec, ok := m.byURL[url]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *mockDocumentStore) ListPages(_ context.Context) ([]driven.PageRecord, error) {
	var out []driven.PageRecord
	for _, rec := range m.byURL {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockDocumentStore) DeletePage(_ context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	for url, rec := range m.byURL {
		if rec.ID == id {
			delete(m.byURL, url)
		}
	}
	return nil
}

func (m *mockDocumentStore) Stats(_ context.Context) (driven.StoreStats, error) {
	stats := driven.StoreStats{Pages: len(m.byURL)}
	for _, rec := range m.byURL {
		stats.TotalChunks += rec.ChunkCount
	}
	return stats, nil
}

func (m *mockDocumentStore) Close() error { return nil }

func testPage(id, url, text string) domain.ContentChunk {
	return domain.ContentChunk{
		ID:        id,
		Text:      text,
		SourceURL: url,
		PageTitle: "Test Page",
	}
}

func TestIngestPages_StoresChunksAndRecord(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{0.1, 0.2}, dims: 2}
	index := &mockVectorIndex{}
	store := newMockDocumentStore()
	svc := NewIngestService(embedder, index, store, IngestOptions{})

	page := testPage("page-1", "https://docs.example.com/intro", "A short page that fits in one chunk.")
	summary, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.PagesIngested)
	assert.Equal(t, 0, summary.PagesReplaced)
	assert.Equal(t, 1, summary.ChunksStored)

	assert.Equal(t, []int{2}, index.ensured)
	assert.Equal(t, driven.IntentDocument, embedder.lastIntent)

	require.Len(t, index.upserted, 1)
	require.Len(t, index.upserted[0], 1)
	point := index.upserted[0][0]
	assert.Equal(t, []float32{0.1, 0.2}, point.Vector)
	assert.Equal(t, "https://docs.example.com/intro", point.Payload.SourceURL)
	assert.Equal(t, "page-1", point.Payload.Metadata["parent_id"])

	require.Len(t, store.saved, 1)
	assert.Equal(t, "page-1", store.saved[0].ID)
	assert.Equal(t, 1, store.saved[0].ChunkCount)
}

func TestIngestPages_ReingestionReplacesPreviousChunks(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{0.1}, dims: 1}
	index := &mockVectorIndex{}
	store := newMockDocumentStore()
	store.byURL["https://docs.example.com/intro"] = driven.PageRecord{
		ID:         "page-1",
		SourceURL:  "https://docs.example.com/intro",
		ChunkCount: 7,
	}
	svc := NewIngestService(embedder, index, store, IngestOptions{})

	page := testPage("page-1", "https://docs.example.com/intro", "Updated page text.")
	summary, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.PagesReplaced)
	assert.Equal(t, []string{"page-1"}, index.deleted)
	assert.Equal(t, []string{"page-1"}, store.deletedIDs)
	require.Len(t, store.saved, 1)
	assert.Equal(t, 1, store.saved[0].ChunkCount)
}

func TestIngestPages_UpsertsInBatches(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{0.1}, dims: 1}
	index := &mockVectorIndex{}
	store := newMockDocumentStore()
	svc := NewIngestService(embedder, index, store, IngestOptions{ChunkSize: 8, Overlap: 0})

	// Long enough to chunk into well over one upsert batch.
	text := strings.Repeat("Word up. ", 800)
	page := testPage("page-big", "https://docs.example.com/big", text)
	summary, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})

	require.NoError(t, err)
	require.Greater(t, len(index.upserted), 1, "expected more than one upsert batch")

	total := 0
	for _, batch := range index.upserted {
		assert.LessOrEqual(t, len(batch), UpsertBatchSize)
		total += len(batch)
	}
	assert.Equal(t, summary.ChunksStored, total)
}

func TestIngestPages_EmbedFailureAborts(t *testing.T) {
	embedErr := errors.New("quota exceeded")
	embedder := &mockEmbeddingService{embedErr: embedErr, dims: 1}
	index := &mockVectorIndex{}
	store := newMockDocumentStore()
	svc := NewIngestService(embedder, index, store, IngestOptions{})

	page := testPage("page-1", "https://docs.example.com/intro", "Some page text.")
	_, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})

	require.Error(t, err)
	assert.ErrorIs(t, err, embedErr)
	assert.Empty(t, index.upserted, "nothing may reach the index after an embedding failure")
	assert.Empty(t, store.saved, "no record may be written after an embedding failure")
}

func TestIngestPages_EmptyPageSkipped(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{0.1}, dims: 1}
	index := &mockVectorIndex{}
	store := newMockDocumentStore()
	svc := NewIngestService(embedder, index, store, IngestOptions{})

	page := testPage("page-empty", "https://docs.example.com/empty", "   \n\n  ")
	summary, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.PagesIngested)
	assert.Equal(t, 0, summary.ChunksStored)
	assert.Empty(t, index.upserted)
	assert.Empty(t, store.saved)
}

func TestIngestPages_PointIDsAreDeterministic(t *testing.T) {
	run := func() []string {
		embedder := &mockEmbeddingService{embedding: []float32{0.1}, dims: 1}
		index := &mockVectorIndex{}
		svc := NewIngestService(embedder, index, newMockDocumentStore(), IngestOptions{})

		page := testPage("page-1", "https://docs.example.com/intro", "Stable content.")
		_, err := svc.IngestPages(context.Background(), []domain.ContentChunk{page})
		require.NoError(t, err)

		var ids []string
		for _, batch := range index.upserted {
			for _, p := range batch {
				ids = append(ids, p.ID)
			}
		}
		return ids
	}

	assert.Equal(t, run(), run(), "re-ingesting identical content must reuse point ids")
}
