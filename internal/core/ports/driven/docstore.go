package driven

import (
	"context"
	"time"
)

// PageRecord is the bookkeeping row kept for each ingested page. The page
// text itself lives in the vector index payloads; this record exists so
// re-ingestion can find and replace a page's previous chunks.
type PageRecord struct {
	ID         string
	SourceURL  string
	PageTitle  string
	ChunkCount int
	IngestedAt time.Time
}

// StoreStats summarises the bookkeeping store.
type StoreStats struct {
	Pages       int
	TotalChunks int
}

// DocumentStore persists page bookkeeping records locally.
type DocumentStore interface {
	// SavePage inserts or replaces the record for a page, keyed by
	// source URL.
	SavePage(ctx context.Context, rec PageRecord) error

	// PageByURL returns the record for a source URL, or nil when the page
	// has not been ingested.
	PageByURL(ctx context.Context, url string) (*PageRecord, error)

	// ListPages returns all records ordered by source URL.
	ListPages(ctx context.Context) ([]PageRecord, error)

	// DeletePage removes a record by id.
	DeletePage(ctx context.Context, id string) error

	// Stats returns page and chunk counts.
	Stats(ctx context.Context) (StoreStats, error)

	// Close releases resources.
	Close() error
}
