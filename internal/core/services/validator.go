package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

// Heuristic scoring constants. These are tuning knobs, not derived values:
// the latency target comes from the project's "under 2 seconds" success
// criterion and the stddev normaliser assumes scores spread over at most
// half the unit interval at one standard deviation.
const (
	// LatencyTargetMS is the retrieval time at which the latency score
	// starts to decay.
	LatencyTargetMS = 2000.0

	// LatencyPenaltySlope scales the penalty past the target; the score
	// reaches zero at 3x the target.
	LatencyPenaltySlope = 0.5

	// MaxScoreStdDev normalises the relevance-score spread for the
	// consistency metric.
	MaxScoreStdDev = 0.5
)

// ValidationService scores retrieval results. Validate is pure over its
// input: it never re-queries and never mutates the wrapped result. Only
// CheckConsistency deliberately re-runs a query.
type ValidationService struct {
	queries *QueryService
}

// NewValidationService creates a validator. The query service is only used
// by CheckConsistency and may be nil when only Validate is needed.
func NewValidationService(queries *QueryService) *ValidationService {
	return &ValidationService{queries: queries}
}

// Validate computes the four quality scores over a retrieval result.
//
// Data-quality anomalies (scores outside [0,1], hits without a source URL)
// lower the scores but are never errors: quality degradation is reported,
// not thrown.
func (s *ValidationService) Validate(result *domain.RetrievalResult) *domain.ValidationResult {
	logger.Section("Result Validation")

	precision := precisionScore(result)
	traceability := traceabilityScore(result)
	consistency := consistencyScore(result)
	latency := latencyScore(result)
	overall := (precision + traceability + consistency + latency) / 4.0

	v := &domain.ValidationResult{
		Retrieval:         result,
		PrecisionScore:    precision,
		TraceabilityScore: traceability,
		ConsistencyScore:  consistency,
		LatencyScore:      latency,
		OverallQuality:    overall,
		Details:           buildDetails(result),
		Timestamp:         time.Now(),
	}

	logger.Info("Validation completed - overall quality: %.3f (%s)", overall, v.Verdict())
	return v
}

// precisionScore is the mean relevance score, standing in for precision in
// the absence of ground-truth relevance judgments. Deliberately unclamped:
// an index returning raw dot products pushes this outside [0,1], and that
// leak is visible rather than masked.
func precisionScore(result *domain.RetrievalResult) float64 {
	if len(result.Chunks) == 0 {
		return 0.0
	}
	return meanScore(result.Chunks)
}

// traceabilityScore is the fraction of chunks that can be linked back to a
// source URL.
func traceabilityScore(result *domain.RetrievalResult) float64 {
	if len(result.Chunks) == 0 {
		return 0.0
	}
	withSource := 0
	for _, c := range result.Chunks {
		if strings.TrimSpace(c.SourceURL) != "" {
			withSource++
		}
	}
	return float64(withSource) / float64(len(result.Chunks))
}

// consistencyScore treats a small relevance-score spread as more consistent
// retrieval. Fewer than two chunks are trivially consistent.
func consistencyScore(result *domain.RetrievalResult) float64 {
	if len(result.Chunks) < 2 {
		return 1.0
	}
	sd := stdDevScore(result.Chunks)
	return math.Max(0.0, 1.0-sd/MaxScoreStdDev)
}

// latencyScore penalises retrieval time linearly past the target. An
// unmeasured call (zero or negative duration) defaults to the best case.
func latencyScore(result *domain.RetrievalResult) float64 {
	if result.RetrievalTimeMS <= 0 {
		return 1.0
	}
	ratio := result.RetrievalTimeMS / LatencyTargetMS
	score := 1.0 - (ratio-1.0)*LatencyPenaltySlope
	return math.Max(0.0, math.Min(1.0, score))
}

func buildDetails(result *domain.RetrievalResult) domain.ValidationDetails {
	details := domain.ValidationDetails{
		Latency: domain.LatencyDetails{
			RetrievalTimeMS: result.RetrievalTimeMS,
			TargetMS:        LatencyTargetMS,
			WithinTarget:    result.RetrievalTimeMS <= LatencyTargetMS,
			LatencyRatio:    result.RetrievalTimeMS / LatencyTargetMS,
		},
		Query: domain.QueryDetails{
			QueryText:       result.Request.QueryText,
			TopKRequested:   result.Request.TopK,
			ResultsReturned: len(result.Chunks),
			FiltersApplied:  result.FiltersApplied,
		},
	}

	details.Traceability.TotalChunks = len(result.Chunks)
	sources := map[string]struct{}{}
	for _, c := range result.Chunks {
		if strings.TrimSpace(c.SourceURL) != "" {
			details.Traceability.ChunksWithSource++
			sources[c.SourceURL] = struct{}{}
		} else {
			details.Traceability.ChunksWithoutSource++
		}
	}
	for src := range sources {
		details.Traceability.Sources = append(details.Traceability.Sources, src)
	}
	sort.Strings(details.Traceability.Sources)

	if len(result.Chunks) > 0 {
		mean := meanScore(result.Chunks)
		variance := varianceScore(result.Chunks, mean)
		minScore, maxScore := result.Chunks[0].RelevanceScore, result.Chunks[0].RelevanceScore
		for _, c := range result.Chunks[1:] {
			minScore = math.Min(minScore, c.RelevanceScore)
			maxScore = math.Max(maxScore, c.RelevanceScore)
		}
		details.Precision = domain.PrecisionDetails{
			MeanRelevance:   mean,
			MinRelevance:    minScore,
			MaxRelevance:    maxScore,
			Variance:        variance,
			StdDev:          math.Sqrt(variance),
			ChunksEvaluated: len(result.Chunks),
		}
		details.Consistency = domain.ConsistencyDetails{
			ChunksEvaluated: len(result.Chunks),
			MeanRelevance:   mean,
			Variance:        variance,
			StdDev:          math.Sqrt(variance),
		}
	}

	return details
}

func meanScore(chunks []domain.RetrievedChunk) float64 {
	sum := 0.0
	for _, c := range chunks {
		sum += c.RelevanceScore
	}
	return sum / float64(len(chunks))
}

func varianceScore(chunks []domain.RetrievedChunk, mean float64) float64 {
	sum := 0.0
	for _, c := range chunks {
		d := c.RelevanceScore - mean
		sum += d * d
	}
	return sum / float64(len(chunks))
}

func stdDevScore(chunks []domain.RetrievedChunk) float64 {
	return math.Sqrt(varianceScore(chunks, meanScore(chunks)))
}

// CheckConsistency re-runs the same query and reports the fraction of
// successful runs that returned the modal chunk count. Count equality is a
// weak stability proxy (two runs can return the same count with entirely
// different chunks) kept as a deliberately cheap heuristic.
func (s *ValidationService) CheckConsistency(ctx context.Context, queryText string, runs, topK int) (float64, error) {
	if s.queries == nil {
		return 0, fmt.Errorf("consistency check requires a query service")
	}
	if runs < 1 {
		runs = 1
	}

	logger.Section("Consistency Check")
	logger.Debug("Running %q %d times with top_k=%d", queryText, runs, topK)

	var counts []int
	for i := 0; i < runs; i++ {
		req := domain.NewQueryRequest(queryText)
		req.TopK = topK
		result, err := s.queries.Process(ctx, req)
		if err != nil {
			logger.Warn("Run %d failed: %v", i+1, err)
			continue
		}
		counts = append(counts, len(result.Chunks))
	}

	if len(counts) == 0 {
		return 0.0, nil
	}

	occurrences := map[int]int{}
	for _, c := range counts {
		occurrences[c]++
	}
	mode := 0
	for _, n := range occurrences {
		if n > mode {
			mode = n
		}
	}

	score := float64(mode) / float64(len(counts))
	logger.Info("Consistency: %.3f (%d/%d runs at the modal count)", score, mode, len(counts))
	return score, nil
}

// Report renders a validation result as the fixed human-readable template.
func (s *ValidationService) Report(v *domain.ValidationResult) string {
	result := v.Retrieval
	var b strings.Builder

	b.WriteString("RETRIEVAL VALIDATION REPORT\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", v.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Query: %q\n\n", result.Request.QueryText)
	b.WriteString("QUALITY METRICS:\n")
	fmt.Fprintf(&b, "- Precision Score: %.3f\n", v.PrecisionScore)
	fmt.Fprintf(&b, "- Traceability Score: %.3f\n", v.TraceabilityScore)
	fmt.Fprintf(&b, "- Consistency Score: %.3f\n", v.ConsistencyScore)
	fmt.Fprintf(&b, "- Latency Score: %.3f\n", v.LatencyScore)
	fmt.Fprintf(&b, "- Overall Quality: %.3f\n\n", v.OverallQuality)
	b.WriteString("DETAILED RESULTS:\n")
	fmt.Fprintf(&b, "- Retrieved %d chunks in %.2fms\n", len(result.Chunks), result.RetrievalTimeMS)
	fmt.Fprintf(&b, "- Requested top-%d results\n", result.Request.TopK)
	fmt.Fprintf(&b, "- Applied filters: %t\n\n", len(result.FiltersApplied) > 0)
	fmt.Fprintf(&b, "VALIDATION STATUS: %s\n", v.Verdict())

	return b.String()
}
