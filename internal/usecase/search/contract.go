package search

import (
	"encoding/json"

	"github.com/kailas-cloud/esmap"
)

// Filter kinds.
const (
	FilterTerm          = "term"
	FilterTerms         = "terms"
	FilterLower         = "lower"
	FilterUpper         = "upper"
	FilterHasParentTerm = "has_parent_term"
	FilterRaw           = "raw"
)

// Aggregation kinds.
const (
	AggRange = "range"
	AggTerm  = "term"
	AggDate  = "date"
	AggRaw   = "raw"
)

// Request is the wire description of a query over one document type.
type Request struct {
	Text         string          `json:"text,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
	Filters      []Filter        `json:"filters,omitempty"`
	Facets       []Aggregation   `json:"facets,omitempty"`
	Aggregations []Aggregation   `json:"aggregations,omitempty"`
	Suggesters   []Suggester     `json:"suggesters,omitempty"`
	Sort         *Sort           `json:"sort,omitempty"`
	Limit        *int            `json:"limit,omitempty"`
	Offset       *int            `json:"offset,omitempty"`
	Start        *int            `json:"start,omitempty"`
	Size         *int            `json:"size,omitempty"`
	Fields       []string        `json:"fields,omitempty"`
}

// Filter is one filter clause. Which fields apply depends on Kind.
type Filter struct {
	Kind       string          `json:"kind"`
	Field      string          `json:"field,omitempty"`
	Value      any             `json:"value,omitempty"`
	Values     []any           `json:"values,omitempty"`
	ParentType string          `json:"parent_type,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Aggregation declares a facet or aggregation. Which fields apply depends on Kind.
type Aggregation struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Field    string          `json:"field,omitempty"`
	Ranges   []esmap.Range   `json:"ranges,omitempty"`
	Size     int             `json:"size,omitempty"`
	Interval string          `json:"interval,omitempty"`
	Format   string          `json:"format,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Suggester declares a term suggester.
type Suggester struct {
	Name  string `json:"name"`
	Field string `json:"field"`
	Text  string `json:"text"`
	Sort  string `json:"sort,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// Sort orders hits by one field.
type Sort struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Response is the wire form of a query result.
type Response struct {
	Total        int64                      `json:"total"`
	Hits         []Hit                      `json:"hits"`
	Facets       map[string]json.RawMessage `json:"facets,omitempty"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
	Suggest      map[string]json.RawMessage `json:"suggest,omitempty"`
}

// Hit is one stored document of a result page.
type Hit struct {
	ID       string       `json:"id"`
	ParentID string       `json:"parent_id,omitempty"`
	DocType  string       `json:"doc_type"`
	Score    *float64     `json:"score,omitempty"`
	Fields   esmap.Fields `json:"fields"`
}
