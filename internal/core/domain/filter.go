package domain

import (
	"fmt"
	"strings"
)

// FilterOperator is a MetadataFilter comparison operator.
type FilterOperator string

const (
	OpEquals   FilterOperator = "equals"
	OpContains FilterOperator = "contains"
	OpIn       FilterOperator = "in"
	OpNotIn    FilterOperator = "not_in"
)

// MetadataFilter is a stateless predicate over a payload mapping. It is used
// for client-side result filtering and diagnostics; server-side filtering is
// the vector index's job.
type MetadataFilter struct {
	FieldName   string
	Operator    FilterOperator
	Value       any
	Description string
}

// NewMetadataFilter builds a filter with a generated description when none
// is given.
func NewMetadataFilter(field string, op FilterOperator, value any, description string) MetadataFilter {
	if description == "" {
		description = fmt.Sprintf("Filter %s %s %v", field, op, value)
	}
	return MetadataFilter{
		FieldName:   field,
		Operator:    op,
		Value:       value,
		Description: description,
	}
}

// Matches reports whether the payload satisfies this filter. A missing field
// never matches. Unknown operators fall back to equality.
func (f MetadataFilter) Matches(payload map[string]any) bool {
	val, ok := payload[f.FieldName]
	if !ok {
		return false
	}

	switch f.Operator {
	case OpEquals:
		return val == f.Value
	case OpContains:
		switch v := val.(type) {
		case string:
			s, ok := f.Value.(string)
			if !ok {
				return false
			}
			return strings.Contains(v, s)
		case []any:
			for _, item := range v {
				if item == f.Value {
					return true
				}
			}
			return false
		}
		return false
	case OpIn:
		list, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if val == item {
				return true
			}
		}
		return false
	case OpNotIn:
		list, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if val == item {
				return false
			}
		}
		return true
	default:
		return val == f.Value
	}
}
