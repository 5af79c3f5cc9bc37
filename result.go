package esmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"maps"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/domain/query"
)

// Hit is a typed search result.
type Hit[T any] struct {
	Item     T
	ID       string
	ParentID string
	DocType  string
	// Score is nil when the query had an explicit sort.
	Score *float64
	// Fields are the stored field values the item was hydrated from.
	Fields Fields
}

// Result is the response of an executed query. Hits are hydrated on each
// iteration from the decoded response; no further engine calls are made.
type Result[T any] struct {
	registry    *Registry
	defaultType string
	total       int64
	hits        []db.Hit
	facets      map[string]json.RawMessage
	aggs        map[string]json.RawMessage
	suggest     map[string]json.RawMessage
}

func newResult[T any](reg *Registry, defaultType string, declared []query.Aggregation, raw *db.SearchResult) *Result[T] {
	r := &Result[T]{
		registry:    reg,
		defaultType: defaultType,
		total:       raw.Total,
		hits:        raw.Hits,
		facets:      make(map[string]json.RawMessage),
		aggs:        make(map[string]json.RawMessage),
		suggest:     raw.Suggest,
	}
	if r.suggest == nil {
		r.suggest = make(map[string]json.RawMessage)
	}
	for _, a := range declared {
		payload, ok := raw.Aggregations[a.Name()]
		if !ok {
			continue
		}
		if a.IsFacet() {
			r.facets[a.Name()] = payload
		} else {
			r.aggs[a.Name()] = payload
		}
	}
	return r
}

// Total returns the number of matching documents, independent of paging.
func (r *Result[T]) Total() int64 { return r.total }

// Len returns the number of hits in this page.
func (r *Result[T]) Len() int { return len(r.hits) }

// All iterates the hits of this page, hydrating each one.
// A hit that fails to hydrate is yielded with its error; iteration goes on
// unless the caller stops. All may be ranged over any number of times.
func (r *Result[T]) All() iter.Seq2[Hit[T], error] {
	return func(yield func(Hit[T], error) bool) {
		for _, raw := range r.hits {
			h, err := hydrateHit[T](r.registry, raw, r.defaultType)
			if !yield(h, err) {
				return
			}
		}
	}
}

// Hits hydrates every hit of this page, stopping at the first error.
func (r *Result[T]) Hits() ([]Hit[T], error) {
	out := make([]Hit[T], 0, len(r.hits))
	for h, err := range r.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Items hydrates every hit of this page and returns the objects only.
func (r *Result[T]) Items() ([]T, error) {
	out := make([]T, 0, len(r.hits))
	for h, err := range r.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, h.Item)
	}
	return out, nil
}

// Facets returns the raw payload of every facet declared on the query, by name.
// The map is a copy.
func (r *Result[T]) Facets() map[string]json.RawMessage { return maps.Clone(r.facets) }

// Aggregations returns the raw payload of every aggregation declared on the query, by name.
func (r *Result[T]) Aggregations() map[string]json.RawMessage { return maps.Clone(r.aggs) }

// Suggests returns the raw payload of every suggester, by name.
func (r *Result[T]) Suggests() map[string]json.RawMessage { return maps.Clone(r.suggest) }

// RangeBucket is one bucket of a range facet.
type RangeBucket struct {
	Key      string   `json:"key"`
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
	DocCount int64    `json:"doc_count"`
}

// TermBucket is one bucket of a term facet, term aggregation or date aggregation.
// Key is a string, a json.Number or a bool; date buckets carry epoch millis.
type TermBucket struct {
	Key         any    `json:"key"`
	KeyAsString string `json:"key_as_string,omitempty"`
	DocCount    int64  `json:"doc_count"`
}

// Suggestion is the suggester output for one token of the suggested text.
type Suggestion struct {
	Text    string             `json:"text"`
	Offset  int                `json:"offset"`
	Length  int                `json:"length"`
	Options []SuggestCandidate `json:"options"`
}

// SuggestCandidate is one ranked correction.
type SuggestCandidate struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int64   `json:"freq"`
}

// RangeFacet decodes the buckets of a range facet, in declared range order.
func (r *Result[T]) RangeFacet(name string) ([]RangeBucket, error) {
	var out []RangeBucket
	if err := decodeBuckets(r.facets, "facet", name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TermFacet decodes the buckets of a term facet, by descending count.
func (r *Result[T]) TermFacet(name string) ([]TermBucket, error) {
	var out []TermBucket
	if err := decodeBuckets(r.facets, "facet", name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TermAggregate decodes the buckets of a term or date aggregation.
func (r *Result[T]) TermAggregate(name string) ([]TermBucket, error) {
	var out []TermBucket
	if err := decodeBuckets(r.aggs, "aggregation", name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TermSuggestions decodes the output of a term suggester.
func (r *Result[T]) TermSuggestions(name string) ([]Suggestion, error) {
	payload, ok := r.suggest[name]
	if !ok {
		return nil, usageErr("no suggester named %q", name)
	}
	var out []Suggestion
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode suggester %q: %w", name, err)
	}
	return out, nil
}

func decodeBuckets(from map[string]json.RawMessage, kind, name string, out any) error {
	payload, ok := from[name]
	if !ok {
		return usageErr("no %s named %q", kind, name)
	}
	var body struct {
		Buckets json.RawMessage `json:"buckets"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return fmt.Errorf("decode %s %q: %w", kind, name, err)
	}
	if len(body.Buckets) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body.Buckets))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s %q buckets: %w", kind, name, err)
	}
	return nil
}
