package domain

import "time"

// Verdict bands over OverallQuality. Advisory only: a FAIL verdict is report
// output, never an error.
const (
	PassThreshold = 0.7
	WarnThreshold = 0.5
)

// ValidationResult wraps a RetrievalResult with four independent quality
// scores and their diagnostic breakdowns. Derived and read-only; it never
// mutates the wrapped result.
type ValidationResult struct {
	Retrieval *RetrievalResult

	// PrecisionScore is the mean relevance score, used as a precision
	// proxy in the absence of ground-truth judgments. Not clamped: scores
	// outside [0,1] from the index leak through.
	PrecisionScore float64

	// TraceabilityScore is the fraction of chunks with a non-empty source
	// URL.
	TraceabilityScore float64

	// ConsistencyScore reflects the spread of relevance scores within
	// this one result. 1.0 when fewer than two chunks.
	ConsistencyScore float64

	// LatencyScore penalises retrieval time against a fixed target.
	LatencyScore float64

	// OverallQuality is the unweighted mean of the four scores.
	OverallQuality float64

	Details   ValidationDetails
	Timestamp time.Time
}

// Verdict maps OverallQuality to a label: PASS (>=0.7), WARNING (>=0.5),
// otherwise FAIL.
func (v *ValidationResult) Verdict() string {
	switch {
	case v.OverallQuality >= PassThreshold:
		return "PASS"
	case v.OverallQuality >= WarnThreshold:
		return "WARNING"
	default:
		return "FAIL"
	}
}

// ValidationDetails is the per-metric diagnostic breakdown.
type ValidationDetails struct {
	Precision    PrecisionDetails
	Traceability TraceabilityDetails
	Consistency  ConsistencyDetails
	Latency      LatencyDetails
	Query        QueryDetails
}

// PrecisionDetails describes the relevance score distribution.
type PrecisionDetails struct {
	MeanRelevance   float64
	MinRelevance    float64
	MaxRelevance    float64
	Variance        float64
	StdDev          float64
	ChunksEvaluated int
}

// TraceabilityDetails describes source URL coverage.
type TraceabilityDetails struct {
	TotalChunks         int
	ChunksWithSource    int
	ChunksWithoutSource int
	Sources             []string
}

// ConsistencyDetails describes score spread for the consistency metric.
type ConsistencyDetails struct {
	ChunksEvaluated int
	MeanRelevance   float64
	Variance        float64
	StdDev          float64
}

// LatencyDetails describes the latency measurement against the target.
type LatencyDetails struct {
	RetrievalTimeMS float64
	TargetMS        float64
	WithinTarget    bool
	LatencyRatio    float64
}

// QueryDetails echoes the request for the report.
type QueryDetails struct {
	QueryText       string
	TopKRequested   int
	ResultsReturned int
	FiltersApplied  map[string]any
}
