// Package chunker splits page text into overlapping segments of bounded
// size, preferring sentence and paragraph boundaries over hard cuts.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
)

// DefaultChunkSize is the default target number of characters per chunk.
const DefaultChunkSize = 800

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 100

// Chunk splits text into segments of at most targetSize characters with the
// given overlap between consecutive segments.
//
// Each segment ends, in order of preference, at the last sentence boundary
// inside the target window, at the last paragraph break past the window's
// halfway point, or exactly at the window edge (a hard cut). Boundary
// seeking is best effort: hard-cut segments may still be sentence fragments.
//
// Text at most targetSize long is returned as a single chunk, unchanged.
// Blank text yields no chunks. Emitted chunks are trimmed and never empty.
// Sizes count runes, so a cut never splits a multi-byte character.
func Chunk(text string, targetSize, overlap int) []string {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= targetSize {
		return []string{text}
	}

	var raw []string
	start := 0
	for start < len(runes) {
		end := start + targetSize
		if end >= len(runes) {
			raw = append(raw, string(runes[start:]))
			break
		}

		window := runes[start:end]
		cut := sentenceCut(window)
		if cut < 0 {
			cut = paragraphCut(window, targetSize/2)
		}
		if cut < 0 {
			cut = len(window)
		}

		raw = append(raw, string(window[:cut]))

		// Advance past the cut minus the overlap, but always by at least
		// one rune so the loop terminates even for large overlaps.
		next := start + cut - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// sentenceCut returns the exclusive cut index at the last sentence-ending
// punctuation followed by whitespace inside the window, or -1 when the
// window holds no such boundary. The cut lands after the punctuation, so
// the emitted chunk ends with its sentence.
func sentenceCut(window []rune) int {
	for i := len(window) - 1; i >= 1; i-- {
		if unicode.IsSpace(window[i]) && isSentencePunct(window[i-1]) {
			return i
		}
	}
	return -1
}

// paragraphCut returns the exclusive cut index just past the last paragraph
// break (double newline) in the window, or -1 when no break lies past the
// halfway point. Breaks in the first half are ignored: cutting there would
// produce a chunk much smaller than the target for no coherence gain.
func paragraphCut(window []rune, half int) int {
	for i := len(window) - 1; i >= 1; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			if i-1 > half {
				return i + 1
			}
			return -1
		}
	}
	return -1
}

func isSentencePunct(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// ChunkDocuments splits every document in the list independently. Output
// chunks carry a synthetic id "{parentID}_chunk_{n}", their position within
// the parent, and metadata recording the chunking provenance.
func ChunkDocuments(docs []domain.ContentChunk, targetSize, overlap int) []domain.ContentChunk {
	var out []domain.ContentChunk
	for _, doc := range docs {
		parts := Chunk(doc.Text, targetSize, overlap)
		for i, part := range parts {
			meta := make(map[string]any, len(doc.Metadata)+4)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["parent_id"] = doc.ID
			meta["chunk_index"] = i
			meta["total_chunks"] = len(parts)
			meta["is_chunked"] = true

			out = append(out, domain.ContentChunk{
				ID:         fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Text:       part,
				SourceURL:  doc.SourceURL,
				PageTitle:  doc.PageTitle,
				ChunkIndex: i,
				CreatedAt:  doc.CreatedAt,
				Metadata:   meta,
			})
		}
	}
	return out
}
