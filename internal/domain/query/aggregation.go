package query

import (
	"encoding/json"
	"fmt"
)

// AggKind discriminates facet and aggregation declarations.
type AggKind int

// Aggregation kinds.
const (
	AggRange AggKind = iota
	AggTerms
	AggDateHistogram
	AggRaw
)

// Range is one bucket bound pair of a range facet. Nil bounds are open.
type Range struct {
	From *float64 `json:"from,omitempty"`
	To   *float64 `json:"to,omitempty"`
}

// Aggregation is a named facet or aggregation declaration.
// Facets and aggregations share the engine's aggregation framework;
// Facet only records which result accessor the caller declared it for.
type Aggregation struct {
	name     string
	facet    bool
	kind     AggKind
	field    string
	size     int
	ranges   []Range
	interval string
	format   string
	raw      json.RawMessage
}

// RangeFacet counts documents per range, buckets in input order.
func RangeFacet(name, field string, ranges []Range) Aggregation {
	return Aggregation{name: name, facet: true, kind: AggRange, field: field, ranges: ranges}
}

// TermFacet returns the size most frequent values of field.
func TermFacet(name, field string, size int) Aggregation {
	return Aggregation{name: name, facet: true, kind: AggTerms, field: field, size: size}
}

// RawFacet wraps an engine-native aggregation body declared as a facet.
func RawFacet(name string, raw json.RawMessage) Aggregation {
	return Aggregation{name: name, facet: true, kind: AggRaw, raw: raw}
}

// TermAggregate buckets documents by the values of field (engine default size).
func TermAggregate(name, field string) Aggregation {
	return Aggregation{name: name, kind: AggTerms, field: field}
}

// DateAggregate buckets documents by calendar interval of a date field.
func DateAggregate(name, field, interval, format string) Aggregation {
	return Aggregation{
		name: name, kind: AggDateHistogram, field: field,
		interval: interval, format: format,
	}
}

// RawAggregate wraps an engine-native aggregation body.
func RawAggregate(name string, raw json.RawMessage) Aggregation {
	return Aggregation{name: name, kind: AggRaw, raw: raw}
}

// Name returns the declared name.
func (a Aggregation) Name() string { return a.name }

// IsFacet reports whether the declaration was made as a facet.
func (a Aggregation) IsFacet() bool { return a.facet }

// Kind returns the aggregation kind.
func (a Aggregation) Kind() AggKind { return a.kind }

// Validate checks the declaration.
func (a Aggregation) Validate() error {
	if a.name == "" {
		return fmt.Errorf("aggregation name is required")
	}
	switch a.kind {
	case AggRaw:
		if !json.Valid(a.raw) {
			return fmt.Errorf("aggregation %q: raw body is not valid JSON", a.name)
		}
		return nil
	case AggRange:
		if len(a.ranges) == 0 {
			return fmt.Errorf("aggregation %q: at least one range is required", a.name)
		}
	case AggTerms:
		if a.size < 0 {
			return fmt.Errorf("aggregation %q: negative size", a.name)
		}
	case AggDateHistogram:
		if a.interval == "" {
			return fmt.Errorf("aggregation %q: interval is required", a.name)
		}
	}
	if a.field == "" {
		return fmt.Errorf("aggregation %q: field is required", a.name)
	}
	return nil
}

// Source renders the aggregation body.
func (a Aggregation) Source() any {
	switch a.kind {
	case AggRange:
		return map[string]any{"range": map[string]any{
			"field":  a.field,
			"ranges": a.ranges,
		}}
	case AggTerms:
		body := map[string]any{"field": a.field}
		if a.size > 0 {
			body["size"] = a.size
		}
		return map[string]any{"terms": body}
	case AggDateHistogram:
		body := map[string]any{
			"field":             a.field,
			"calendar_interval": a.interval,
		}
		if a.format != "" {
			body["format"] = a.format
		}
		return map[string]any{"date_histogram": body}
	default:
		return a.raw
	}
}
