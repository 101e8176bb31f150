package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataFilter_Equals(t *testing.T) {
	f := NewMetadataFilter("page_title", OpEquals, "Introduction", "")
	assert.True(t, f.Matches(map[string]any{"page_title": "Introduction"}))
	assert.False(t, f.Matches(map[string]any{"page_title": "Appendix"}))
}

func TestMetadataFilter_MissingFieldNeverMatches(t *testing.T) {
	f := NewMetadataFilter("page_title", OpEquals, "Introduction", "")
	assert.False(t, f.Matches(map[string]any{}))
	assert.False(t, f.Matches(nil))

	// Not-in also refuses to match a missing field.
	f = NewMetadataFilter("page_title", OpNotIn, []any{"Appendix"}, "")
	assert.False(t, f.Matches(map[string]any{}))
}

func TestMetadataFilter_ContainsString(t *testing.T) {
	f := NewMetadataFilter("text", OpContains, "vector", "")
	assert.True(t, f.Matches(map[string]any{"text": "a vector database"}))
	assert.False(t, f.Matches(map[string]any{"text": "a relational database"}))
}

func TestMetadataFilter_ContainsList(t *testing.T) {
	f := NewMetadataFilter("tags", OpContains, "rag", "")
	assert.True(t, f.Matches(map[string]any{"tags": []any{"search", "rag"}}))
	assert.False(t, f.Matches(map[string]any{"tags": []any{"search"}}))
}

func TestMetadataFilter_ContainsWrongTypes(t *testing.T) {
	f := NewMetadataFilter("count", OpContains, "x", "")
	assert.False(t, f.Matches(map[string]any{"count": 42}))

	f = NewMetadataFilter("text", OpContains, 42, "")
	assert.False(t, f.Matches(map[string]any{"text": "42 items"}))
}

func TestMetadataFilter_In(t *testing.T) {
	f := NewMetadataFilter("page_title", OpIn, []any{"Introduction", "Overview"}, "")
	assert.True(t, f.Matches(map[string]any{"page_title": "Overview"}))
	assert.False(t, f.Matches(map[string]any{"page_title": "Appendix"}))

	// A non-slice value for "in" matches nothing.
	f = NewMetadataFilter("page_title", OpIn, "Introduction", "")
	assert.False(t, f.Matches(map[string]any{"page_title": "Introduction"}))
}

func TestMetadataFilter_NotIn(t *testing.T) {
	f := NewMetadataFilter("page_title", OpNotIn, []any{"Appendix", "Glossary"}, "")
	assert.True(t, f.Matches(map[string]any{"page_title": "Introduction"}))
	assert.False(t, f.Matches(map[string]any{"page_title": "Glossary"}))
}

func TestMetadataFilter_UnknownOperatorFallsBackToEquality(t *testing.T) {
	f := NewMetadataFilter("page_title", FilterOperator("fuzzy"), "Introduction", "")
	assert.True(t, f.Matches(map[string]any{"page_title": "Introduction"}))
	assert.False(t, f.Matches(map[string]any{"page_title": "Intro"}))
}

func TestNewMetadataFilter_GeneratedDescription(t *testing.T) {
	f := NewMetadataFilter("page_title", OpEquals, "Introduction", "")
	assert.Equal(t, "Filter page_title equals Introduction", f.Description)

	f = NewMetadataFilter("page_title", OpEquals, "Introduction", "only the intro")
	assert.Equal(t, "only the intro", f.Description)
}
