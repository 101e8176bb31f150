package chunker

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
)

func TestChunk_ShortTextReturnedUnchanged(t *testing.T) {
	text := "A short paragraph that fits."
	chunks := Chunk(text, 100, 20)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_EmptyAndBlankText(t *testing.T) {
	assert.Nil(t, Chunk("", 100, 20))
	assert.Nil(t, Chunk("   \n\t  ", 100, 20))
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	chunks := Chunk("A. B. C. D.", 4, 1)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 4)
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q should cut after sentence punctuation", c)
	}
}

func TestChunk_ParagraphFallback(t *testing.T) {
	// No sentence punctuation anywhere, but a paragraph break past the
	// halfway point of the window.
	text := strings.Repeat("word ", 12) + "\n\n" + strings.Repeat("more ", 30)
	chunks := Chunk(text, 80, 10)

	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("word ", 12)), chunks[0])
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Chunk(text, 100, 10)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
	// Overlap-adjusted concatenation must cover the full input.
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestChunk_NoEmptyChunks(t *testing.T) {
	text := "One sentence here. \n\n   \n\nAnother sentence over there. And a third one follows it closely."
	for _, size := range []int{10, 25, 40, 80} {
		chunks := Chunk(text, size, 5)
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
	}
}

func TestChunk_TerminatesWithLargeOverlap(t *testing.T) {
	// Overlap >= target size would stall the cursor without the minimum
	// advance guard; the constructor clamps it and the loop must finish.
	text := strings.Repeat("a sentence ends here. ", 50)
	done := make(chan []string, 1)
	go func() { done <- Chunk(text, 30, 29) }()

	select {
	case chunks := <-done:
		assert.NotEmpty(t, chunks)
	case <-time.After(5 * time.Second):
		t.Fatal("chunking did not terminate")
	}
}

func TestChunk_CoversEntireText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs. " +
		"How vexingly quick daft zebras jump! " +
		"Sphinx of black quartz, judge my vow."
	chunks := Chunk(text, 60, 15)

	require.Greater(t, len(chunks), 1)
	// Every sentence of the original must appear in at least one chunk.
	for _, sentence := range strings.SplitAfter(text, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		found := false
		joined := strings.Join(chunks, " ")
		if strings.Contains(joined, sentence) {
			found = true
		}
		assert.True(t, found, "sentence %q missing from chunks", sentence)
	}
}

func TestChunk_DoesNotSplitMultiByteRunes(t *testing.T) {
	text := strings.Repeat("日本語のテキストです。", 30)
	chunks := Chunk(text, 50, 10)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c, "�") == c, "chunk contains a split rune: %q", c)
	}
}

func TestChunkDocuments_AssignsIDsAndMetadata(t *testing.T) {
	now := time.Now()
	docs := []domain.ContentChunk{
		{
			ID:        "page-1",
			Text:      strings.Repeat("A full sentence sits right here. ", 10),
			SourceURL: "https://example.com/intro",
			PageTitle: "Introduction",
			CreatedAt: now,
			Metadata:  map[string]any{"section": "basics"},
		},
	}

	out := ChunkDocuments(docs, 80, 20)
	require.Greater(t, len(out), 1)

	for i, c := range out {
		assert.Equal(t, "page-1_chunk_"+strconv.Itoa(i), c.ID)
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "https://example.com/intro", c.SourceURL)
		assert.Equal(t, "Introduction", c.PageTitle)
		assert.Equal(t, now, c.CreatedAt)
		assert.Equal(t, "page-1", c.Metadata["parent_id"])
		assert.Equal(t, i, c.Metadata["chunk_index"])
		assert.Equal(t, len(out), c.Metadata["total_chunks"])
		assert.Equal(t, true, c.Metadata["is_chunked"])
		assert.Equal(t, "basics", c.Metadata["section"])
	}
}

func TestChunkDocuments_EmptyDocumentYieldsNothing(t *testing.T) {
	out := ChunkDocuments([]domain.ContentChunk{{ID: "p", Text: "   "}}, 80, 20)
	assert.Empty(t, out)
}

func TestChunkDocuments_DoesNotShareMetadata(t *testing.T) {
	docs := []domain.ContentChunk{{
		ID:       "p",
		Text:     strings.Repeat("Sentence one lives here. ", 10),
		Metadata: map[string]any{"k": "v"},
	}}

	out := ChunkDocuments(docs, 60, 10)
	require.Greater(t, len(out), 1)

	out[0].Metadata["k"] = "changed"
	assert.Equal(t, "v", out[1].Metadata["k"])
	assert.Equal(t, "v", docs[0].Metadata["k"])
}
