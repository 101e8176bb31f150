package domain

import "time"

// ContentChunk represents a bounded segment of text extracted from a source
// page. Before chunking it holds the full page text; after chunking each
// instance is one boundary-respecting segment. Chunks are immutable once
// created and are only replaced by re-ingesting their source page.
type ContentChunk struct {
	// ID is the unique identifier. Chunks derived from a parent document
	// use the form "{parentID}_chunk_{n}".
	ID string

	// Text is the chunk content. Never empty after chunking.
	Text string

	// SourceURL is the page the text was extracted from.
	SourceURL string

	// PageTitle is the human-readable title of the source page.
	PageTitle string

	// ChunkIndex is the 0-based position within the source document.
	ChunkIndex int

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time

	// Metadata contains chunking provenance (parent id, chunk count,
	// chunking flags) and any extractor-supplied fields.
	Metadata map[string]any
}

// RetrievedChunk is a ContentChunk returned by a vector search together with
// its relevance score. Produced only as search output; never persisted.
//
// RelevanceScore is expected to lie in [0,1] for cosine similarity but is
// not clamped here: indexes configured for raw dot products can report
// values outside that range, and the validator treats those as a quality
// signal rather than an error.
type RetrievedChunk struct {
	ContentChunk

	RelevanceScore float64
}
