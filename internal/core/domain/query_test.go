package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQueryRequest_Defaults(t *testing.T) {
	req := NewQueryRequest("what is chunking?")

	assert.Equal(t, "what is chunking?", req.QueryText)
	assert.Equal(t, DefaultTopK, req.TopK)
	assert.Nil(t, req.MinScore)
	assert.False(t, req.CreatedAt.IsZero())
	assert.NoError(t, req.Validate())
}

func TestValidate_BlankQuery(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		req := NewQueryRequest(text)
		err := req.Validate()
		assert.ErrorIs(t, err, ErrEmptyQuery, "text %q", text)
		assert.ErrorIs(t, err, ErrInvalidInput, "text %q", text)
	}
}

func TestValidate_TopKRange(t *testing.T) {
	req := NewQueryRequest("question")

	for _, k := range []int{MinTopK, MaxTopK, 50} {
		req.TopK = k
		assert.NoError(t, req.Validate(), "top_k=%d", k)
	}
	for _, k := range []int{0, -1, MaxTopK + 1} {
		req.TopK = k
		assert.ErrorIs(t, req.Validate(), ErrTopKRange, "top_k=%d", k)
	}
}

func TestValidate_MinScoreRange(t *testing.T) {
	req := NewQueryRequest("question")

	for _, s := range []float64{0.0, 0.5, 1.0} {
		score := s
		req.MinScore = &score
		assert.NoError(t, req.Validate(), "min_score=%v", s)
	}
	for _, s := range []float64{-0.01, 1.01} {
		score := s
		req.MinScore = &score
		assert.ErrorIs(t, req.Validate(), ErrMinScoreRange, "min_score=%v", s)
	}
}
