package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoherenceReport_Empty(t *testing.T) {
	stats := CoherenceReport(nil, 0)
	assert.Equal(t, 0, stats.TotalChunks)
	assert.Zero(t, stats.CoherenceScore)
	assert.Zero(t, stats.AvgChunkSize)
}

func TestCoherenceReport_CountsFragments(t *testing.T) {
	chunks := []string{
		"This chunk is comfortably longer than the minimum size threshold.",
		"tiny",
	}
	stats := CoherenceReport(chunks, 50)

	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 1, stats.ValidChunks)
	assert.Equal(t, 1, stats.InvalidChunks)
	assert.InDelta(t, 0.5, stats.CoherenceScore, 1e-9)
	assert.InDelta(t, 0.5, stats.BoundaryPreservation, 1e-9)
}

func TestBoundaryReport(t *testing.T) {
	chunks := []string{
		"Ends with a period.",
		"Ends with a bang!",
		"Ends with a question?",
		"Ends with a newline\n",
		"ends with nothing",
	}
	stats := BoundaryReport(chunks)

	assert.Equal(t, 5, stats.TotalChunks)
	assert.Equal(t, 4, stats.BoundaryPreserved)
	assert.InDelta(t, 0.8, stats.PreservationRate, 1e-9)
}
