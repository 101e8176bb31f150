package chunker

import "strings"

// MinCoherentChunkSize is the diagnostic minimum length below which a chunk
// counts as a fragment. Observability only; never a gate.
const MinCoherentChunkSize = 50

// CoherenceStats describes how well a chunk set holds together. These are
// descriptive statistics for reports and logs, not control flow.
type CoherenceStats struct {
	TotalChunks          int
	ValidChunks          int
	InvalidChunks        int
	AvgChunkSize         float64
	CoherenceScore       float64
	BoundaryPreservation float64
}

// CoherenceReport computes size and boundary statistics over chunks. A chunk
// is "valid" when it meets minSize runes; a zero minSize uses
// MinCoherentChunkSize.
func CoherenceReport(chunks []string, minSize int) CoherenceStats {
	if minSize <= 0 {
		minSize = MinCoherentChunkSize
	}

	stats := CoherenceStats{TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}

	totalSize := 0
	goodBoundaries := 0
	for _, c := range chunks {
		size := len([]rune(c))
		totalSize += size
		if size >= minSize {
			stats.ValidChunks++
		}
		if endsOnBoundary(c) {
			goodBoundaries++
		}
	}

	stats.InvalidChunks = stats.TotalChunks - stats.ValidChunks
	stats.AvgChunkSize = float64(totalSize) / float64(stats.TotalChunks)
	stats.CoherenceScore = float64(stats.ValidChunks) / float64(stats.TotalChunks)
	stats.BoundaryPreservation = float64(goodBoundaries) / float64(stats.TotalChunks)
	return stats
}

// BoundaryStats reports how many chunks end on a sentence or paragraph
// boundary.
type BoundaryStats struct {
	TotalChunks       int
	BoundaryPreserved int
	PreservationRate  float64
}

// BoundaryReport counts chunks ending with sentence punctuation or a
// paragraph break.
func BoundaryReport(chunks []string) BoundaryStats {
	stats := BoundaryStats{TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}

	for _, c := range chunks {
		if endsOnBoundary(c) {
			stats.BoundaryPreserved++
		}
	}
	stats.PreservationRate = float64(stats.BoundaryPreserved) / float64(stats.TotalChunks)
	return stats
}

func endsOnBoundary(chunk string) bool {
	trimmed := strings.TrimRight(chunk, " \t")
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return last == '.' || last == '!' || last == '?' || last == '\n'
}
