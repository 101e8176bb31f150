package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the base error for argument validation failures.
// The specific sentinels below wrap it, so errors.Is(err, ErrInvalidInput)
// matches any of them.
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrEmptyQuery indicates an empty or whitespace-only query text.
	ErrEmptyQuery = fmt.Errorf("%w: query text cannot be empty", ErrInvalidInput)

	// ErrTopKRange indicates a top-k outside the [1,100] range.
	ErrTopKRange = fmt.Errorf("%w: top_k must be between 1 and 100", ErrInvalidInput)

	// ErrMinScoreRange indicates a min-score outside [0,1].
	ErrMinScoreRange = fmt.Errorf("%w: min_score must be between 0.0 and 1.0", ErrInvalidInput)
)

// ErrDimensionMismatch indicates embeddings of differing dimensions within a
// single embedding call. The whole batch fails; there is no per-item result.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")
