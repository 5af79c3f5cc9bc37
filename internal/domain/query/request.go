package query

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

const (
	// DefaultSize is the page size of a query without a limit.
	DefaultSize = 10000
	// MaxWindow is the engine's result window: from+size may not exceed it.
	MaxWindow = 10000
)

// Sort is an explicit sort on one field.
type Sort struct {
	Field string
	Desc  bool
}

// Source renders the sort clause.
func (s Sort) Source() map[string]any {
	order := "asc"
	if s.Desc {
		order = "desc"
	}
	return map[string]any{s.Field: map[string]any{"order": order}}
}

// Window is the from/size pair sent with a search.
type Window struct {
	From int
	Size int
}

// ComputeWindow composes builder pagination with execution-time pagination.
// from = offset + start; size = min(limit, size), defaulting to DefaultSize;
// the result is clamped to MaxWindow, so an offset past it yields an empty page.
func ComputeWindow(offset, limit, start, size *int) Window {
	w := Window{Size: DefaultSize}
	if offset != nil {
		w.From = *offset
	}
	if limit != nil {
		w.Size = *limit
	}
	if size != nil && *size < w.Size {
		w.Size = *size
	}
	if start != nil {
		w.From += *start
	}
	if w.Size < 0 {
		w.Size = 0
	}
	// Past the window nothing can match; the engine rejects from > MaxWindow.
	if w.From > MaxWindow {
		w.From = MaxWindow
	}
	if w.From+w.Size > MaxWindow {
		w.Size = MaxWindow - w.From
	}
	return w
}

// Request is a fully accumulated search request.
type Request struct {
	DocTypes   []string
	Text       Text
	TextFields []string
	Filters    []Filter
	Aggs       []Aggregation
	Suggesters []Suggester
	Sort       *Sort
	Window     Window
	// Fields restricts the stored fields returned per hit. Nil returns all of them.
	Fields []string
}

// Query renders the query part shared by search and count requests.
func (r *Request) Query() any {
	filters := make([]any, 0, len(r.Filters)+1)
	switch len(r.DocTypes) {
	case 0:
	case 1:
		filters = append(filters, map[string]any{
			"term": map[string]any{mapping.DocTypeField: r.DocTypes[0]},
		})
	default:
		filters = append(filters, map[string]any{
			"terms": map[string]any{mapping.DocTypeField: r.DocTypes},
		})
	}
	for _, f := range r.Filters {
		filters = append(filters, f.Source())
	}

	text := r.Text.Source(r.TextFields)
	if len(filters) == 0 {
		return text
	}
	return map[string]any{"bool": map[string]any{
		"must":   text,
		"filter": filters,
	}}
}

// SearchBody renders the search request body.
func (r *Request) SearchBody() ([]byte, error) {
	body := map[string]any{
		"query":            r.Query(),
		"from":             r.Window.From,
		"size":             r.Window.Size,
		"track_total_hits": true,
	}
	if r.Sort != nil {
		body["sort"] = []any{r.Sort.Source()}
	}
	if len(r.Aggs) > 0 {
		aggs := make(map[string]any, len(r.Aggs))
		for _, a := range r.Aggs {
			aggs[a.Name()] = a.Source()
		}
		body["aggs"] = aggs
	}
	if len(r.Suggesters) > 0 {
		suggest := make(map[string]any, len(r.Suggesters))
		for _, s := range r.Suggesters {
			suggest[s.Name] = s.Source()
		}
		body["suggest"] = suggest
	}
	if r.Fields != nil {
		includes := make([]string, 0, len(r.Fields)+1)
		includes = append(includes, r.Fields...)
		includes = append(includes, mapping.DocTypeField)
		body["_source"] = map[string]any{"includes": includes}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}
	return data, nil
}

// CountBody renders the count request body. Sort, pagination,
// aggregations and suggesters do not apply to counts.
func (r *Request) CountBody() ([]byte, error) {
	data, err := json.Marshal(map[string]any{"query": r.Query()})
	if err != nil {
		return nil, fmt.Errorf("marshal count body: %w", err)
	}
	return data, nil
}
