package query

import (
	"encoding/json"
	"fmt"
)

// FilterKind discriminates filter clauses.
type FilterKind int

// Filter kinds.
const (
	FilterTerm FilterKind = iota
	FilterTerms
	FilterLower
	FilterUpper
	FilterHasParentTerm
	FilterRaw
)

func (k FilterKind) String() string {
	switch k {
	case FilterTerm:
		return "term"
	case FilterTerms:
		return "terms"
	case FilterLower:
		return "lower"
	case FilterUpper:
		return "upper"
	case FilterHasParentTerm:
		return "has_parent_term"
	case FilterRaw:
		return "raw"
	default:
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
}

// Filter is a single filter clause. Filters of one query are ANDed.
type Filter struct {
	kind       FilterKind
	field      string
	value      any
	values     []any
	parentType string
	raw        json.RawMessage
}

// Term matches documents whose field equals value exactly.
func Term(field string, value any) Filter {
	return Filter{kind: FilterTerm, field: field, value: value}
}

// Terms matches documents whose field equals one of values. No values matches nothing.
func Terms(field string, values []any) Filter {
	if values == nil {
		values = []any{}
	}
	return Filter{kind: FilterTerms, field: field, values: values}
}

// Lower matches documents whose field is >= bound.
func Lower(field string, bound any) Filter {
	return Filter{kind: FilterLower, field: field, value: bound}
}

// Upper matches documents whose field is <= bound.
func Upper(field string, bound any) Filter {
	return Filter{kind: FilterUpper, field: field, value: bound}
}

// HasParentTerm matches children whose parent of parentType has field equal to value.
func HasParentTerm(parentType, field string, value any) Filter {
	return Filter{kind: FilterHasParentTerm, parentType: parentType, field: field, value: value}
}

// RawFilter wraps an engine-native filter clause.
func RawFilter(raw json.RawMessage) Filter {
	return Filter{kind: FilterRaw, raw: raw}
}

// Kind returns the filter kind.
func (f Filter) Kind() FilterKind { return f.kind }

// Field returns the filtered field name.
func (f Filter) Field() string { return f.field }

// Validate checks the clause before it is accepted by a builder.
func (f Filter) Validate() error {
	switch f.kind {
	case FilterRaw:
		if !json.Valid(f.raw) {
			return fmt.Errorf("raw filter is not valid JSON")
		}
		return nil
	case FilterHasParentTerm:
		if f.parentType == "" {
			return fmt.Errorf("has_parent filter requires a parent type")
		}
	}
	if f.field == "" {
		return fmt.Errorf("%s filter requires a field", f.kind)
	}
	return nil
}

// Source renders the clause.
func (f Filter) Source() any {
	switch f.kind {
	case FilterTerm:
		return map[string]any{"term": map[string]any{f.field: f.value}}
	case FilterTerms:
		return map[string]any{"terms": map[string]any{f.field: f.values}}
	case FilterLower:
		return map[string]any{"range": map[string]any{f.field: map[string]any{"gte": f.value}}}
	case FilterUpper:
		return map[string]any{"range": map[string]any{f.field: map[string]any{"lte": f.value}}}
	case FilterHasParentTerm:
		return map[string]any{"has_parent": map[string]any{
			"parent_type": f.parentType,
			"query":       map[string]any{"term": map[string]any{f.field: f.value}},
		}}
	default:
		return f.raw
	}
}
