package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "bookrag-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testRecord(id, url string, chunks int) driven.PageRecord {
	return driven.PageRecord{
		ID:         id,
		SourceURL:  url,
		PageTitle:  "Page " + id,
		ChunkCount: chunks,
		IngestedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSavePage_AndGetByURL(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	rec := testRecord("page-1", "https://docs.example.com/intro", 7)
	require.NoError(t, store.SavePage(ctx, rec))

	got, err := store.PageByURL(ctx, "https://docs.example.com/intro")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "page-1", got.ID)
	assert.Equal(t, "Page page-1", got.PageTitle)
	assert.Equal(t, 7, got.ChunkCount)
	assert.True(t, rec.IngestedAt.Equal(got.IngestedAt))
}

func TestPageByURL_MissingReturnsNil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.PageByURL(context.Background(), "https://docs.example.com/missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSavePage_ReplacesOnSameURL(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SavePage(ctx, testRecord("page-1", "https://docs.example.com/intro", 7)))
	require.NoError(t, store.SavePage(ctx, testRecord("page-1b", "https://docs.example.com/intro", 3)))

	got, err := store.PageByURL(ctx, "https://docs.example.com/intro")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "page-1b", got.ID)
	assert.Equal(t, 3, got.ChunkCount)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pages)
}

func TestListPages_OrderedByURL(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SavePage(ctx, testRecord("b", "https://docs.example.com/b", 2)))
	require.NoError(t, store.SavePage(ctx, testRecord("a", "https://docs.example.com/a", 1)))

	pages, err := store.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "https://docs.example.com/a", pages[0].SourceURL)
	assert.Equal(t, "https://docs.example.com/b", pages[1].SourceURL)
}

func TestDeletePage(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SavePage(ctx, testRecord("page-1", "https://docs.example.com/intro", 7)))
	require.NoError(t, store.DeletePage(ctx, "page-1"))

	got, err := store.PageByURL(ctx, "https://docs.example.com/intro")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an unknown id is not an error.
	assert.NoError(t, store.DeletePage(ctx, "no-such-page"))
}

func TestStats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, driven.StoreStats{}, stats)

	require.NoError(t, store.SavePage(ctx, testRecord("a", "https://docs.example.com/a", 4)))
	require.NoError(t, store.SavePage(ctx, testRecord("b", "https://docs.example.com/b", 6)))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 10, stats.TotalChunks)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookrag-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.SavePage(context.Background(), testRecord("a", "https://docs.example.com/a", 4)))
	require.NoError(t, store.Close())

	// Re-opening the same directory must not re-run migrations or lose data.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.PageByURL(context.Background(), "https://docs.example.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
}
