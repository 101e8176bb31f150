package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookrag-labs/bookrag-cli/internal/chunker"
	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

// UpsertBatchSize bounds how many points go to the vector index per request.
const UpsertBatchSize = 64

// pointNamespace seeds deterministic point UUIDs, so re-ingesting a page
// overwrites its old points instead of duplicating them.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// IngestOptions tunes the ingestion pipeline.
type IngestOptions struct {
	ChunkSize int
	Overlap   int
}

// IngestSummary reports what one ingestion run did.
type IngestSummary struct {
	PagesIngested int
	PagesReplaced int
	ChunksStored  int
}

// IngestService runs the ingestion path: page documents are chunked,
// embedded with document intent, and upserted into the vector index, with a
// bookkeeping record per page. Re-ingesting a page deletes its previous
// chunks first; chunks are immutable between ingestions.
type IngestService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	store    driven.DocumentStore
	opts     IngestOptions
}

// NewIngestService creates an ingestion service. Zero option fields fall
// back to the chunker defaults.
func NewIngestService(embedder driven.EmbeddingService, index driven.VectorIndex, store driven.DocumentStore, opts IngestOptions) *IngestService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = chunker.DefaultOverlap
	}
	return &IngestService{
		embedder: embedder,
		index:    index,
		store:    store,
		opts:     opts,
	}
}

// IngestPages chunks, embeds and stores the given page documents. Each
// element of pages holds one page's full extracted text.
func (s *IngestService) IngestPages(ctx context.Context, pages []domain.ContentChunk) (*IngestSummary, error) {
	logger.Section("Ingestion")

	if err := s.index.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	summary := &IngestSummary{}
	for _, page := range pages {
		replaced, stored, err := s.ingestPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", page.SourceURL, err)
		}
		summary.PagesIngested++
		if replaced {
			summary.PagesReplaced++
		}
		summary.ChunksStored += stored
	}

	logger.Info("Ingested %d pages (%d replaced), %d chunks stored",
		summary.PagesIngested, summary.PagesReplaced, summary.ChunksStored)
	return summary, nil
}

func (s *IngestService) ingestPage(ctx context.Context, page domain.ContentChunk) (replaced bool, stored int, err error) {
	logger.Debug("Ingesting page %s", page.SourceURL)

	// Re-ingestion destroys the page's previous chunks before the new
	// ones are written.
	if existing, err := s.store.PageByURL(ctx, page.SourceURL); err != nil {
		return false, 0, fmt.Errorf("lookup page record: %w", err)
	} else if existing != nil {
		logger.Debug("Page already ingested, replacing %d chunks", existing.ChunkCount)
		if err := s.index.DeleteByParent(ctx, existing.ID); err != nil {
			return false, 0, fmt.Errorf("delete previous chunks: %w", err)
		}
		if err := s.store.DeletePage(ctx, existing.ID); err != nil {
			return false, 0, fmt.Errorf("delete page record: %w", err)
		}
		replaced = true
	}

	chunks := chunker.ChunkDocuments([]domain.ContentChunk{page}, s.opts.ChunkSize, s.opts.Overlap)
	if len(chunks) == 0 {
		logger.Warn("Page %s produced no chunks, skipping", page.SourceURL)
		return replaced, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if logger.IsVerbose() {
		stats := chunker.CoherenceReport(texts, 0)
		logger.Debug("Chunked %s into %d chunks (avg %.0f chars, %.0f%% on boundaries)",
			page.SourceURL, stats.TotalChunks, stats.AvgChunkSize, stats.BoundaryPreservation*100)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts, driven.IntentDocument)
	if err != nil {
		return replaced, 0, fmt.Errorf("embed chunks: %w", err)
	}

	points := make([]driven.VectorPoint, len(chunks))
	for i, c := range chunks {
		points[i] = driven.VectorPoint{
			ID:     uuid.NewSHA1(pointNamespace, []byte(c.ID)).String(),
			Vector: vectors[i],
			Payload: driven.ChunkPayload{
				Text:       c.Text,
				SourceURL:  c.SourceURL,
				PageTitle:  c.PageTitle,
				ChunkIndex: c.ChunkIndex,
				CreatedAt:  c.CreatedAt.Format(time.RFC3339),
				Metadata:   c.Metadata,
			},
		}
	}

	for start := 0; start < len(points); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := s.index.Upsert(ctx, points[start:end]); err != nil {
			return replaced, 0, fmt.Errorf("upsert batch: %w", err)
		}
	}

	rec := driven.PageRecord{
		ID:         page.ID,
		SourceURL:  page.SourceURL,
		PageTitle:  page.PageTitle,
		ChunkCount: len(chunks),
		IngestedAt: time.Now(),
	}
	if err := s.store.SavePage(ctx, rec); err != nil {
		return replaced, 0, fmt.Errorf("save page record: %w", err)
	}

	return replaced, len(chunks), nil
}
