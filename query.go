package esmap

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/domain/query"
)

// DefaultPageSize is the number of hits returned when neither Limit nor WithSize is used.
const DefaultPageSize = query.DefaultSize

// MaxResultWindow bounds from+size. Pages past it come back empty.
const MaxResultWindow = query.MaxWindow

// Query is a chainable search request over one or more document types.
//
// Every method returns a new Query and leaves the receiver untouched, so a
// partially built query can be reused as the base of several others.
// Invalid clauses are remembered and reported by Execute, Count and Body.
type Query[T any] struct {
	client   *Client
	docTypes []string
	// textFields are the boosted text fields keyword queries search.
	textFields []string
	err        error

	text       query.Text
	filters    []query.Filter
	aggs       []query.Aggregation
	suggesters []query.Suggester
	sort       *query.Sort
	limit      *int
	offset     *int
}

// Search starts a query over the document type T is registered as,
// optionally seeded with a keyword or raw text query.
func Search[T any](c *Client, text ...QueryText) *Query[T] {
	q := &Query[T]{client: c}
	d, err := forType[T](c.registry)
	if err != nil {
		q.err = err
		return q
	}
	q.docTypes = []string{d.docType.Name}
	q.textFields = d.docType.QueryFields()
	return q.seed(text)
}

// SearchType starts a query over a named document type whose objects are T.
// Use it for Go types registered under several document types.
func SearchType[T any](c *Client, docType string, text ...QueryText) *Query[T] {
	q := &Query[T]{client: c}
	d, err := c.registry.byDocType(docType)
	if err != nil {
		q.err = err
		return q
	}
	if t := reflect.TypeFor[T](); t.Kind() != reflect.Interface && t != d.goType {
		q.err = usageErr("document type %q is mapped to %s, not %s", docType, d.goType, t)
		return q
	}
	q.docTypes = []string{docType}
	q.textFields = d.docType.QueryFields()
	return q.seed(text)
}

// Search starts an untyped query over the given document types, or over
// every document in the index when none are named. Hits hydrate to the
// object type each document type is registered with.
func (c *Client) Search(text QueryText, docTypes ...string) *Query[any] {
	q := &Query[any]{client: c, text: text}
	var fields []string
	if len(docTypes) == 0 {
		for _, dt := range c.registry.DocTypes() {
			fields = append(fields, dt.QueryFields()...)
		}
	}
	for _, name := range docTypes {
		d, err := c.registry.byDocType(name)
		if err != nil {
			q.err = err
			return q
		}
		fields = append(fields, d.docType.QueryFields()...)
	}
	q.docTypes = slices.Clone(docTypes)
	q.textFields = dedupe(fields)
	return q
}

func (q *Query[T]) seed(text []QueryText) *Query[T] {
	switch len(text) {
	case 0:
	case 1:
		q.text = text[0]
	default:
		q.err = usageErr("at most one text query")
	}
	return q
}

// clone copies q. Slices are clipped so appends on the copy never write into q.
func (q *Query[T]) clone() *Query[T] {
	c := *q
	c.filters = slices.Clip(q.filters)
	c.aggs = slices.Clip(q.aggs)
	c.suggesters = slices.Clip(q.suggesters)
	return &c
}

func (q *Query[T]) withFilter(f query.Filter) *Query[T] {
	c := q.clone()
	if err := f.Validate(); err != nil && c.err == nil {
		c.err = usageErr("%v", err)
	}
	c.filters = append(c.filters, f)
	return c
}

func (q *Query[T]) withAgg(a query.Aggregation) *Query[T] {
	c := q.clone()
	if c.err == nil {
		if err := a.Validate(); err != nil {
			c.err = usageErr("%v", err)
		} else if slices.ContainsFunc(q.aggs, func(x query.Aggregation) bool { return x.Name() == a.Name() }) {
			c.err = usageErr("facet or aggregation %q declared twice", a.Name())
		}
	}
	c.aggs = append(c.aggs, a)
	return c
}

// FilterTerm keeps documents whose field equals value exactly.
func (q *Query[T]) FilterTerm(field string, value any) *Query[T] {
	return q.withFilter(query.Term(field, value))
}

// FilterTerms keeps documents whose field equals one of values.
// No values matches nothing.
func (q *Query[T]) FilterTerms(field string, values ...any) *Query[T] {
	return q.withFilter(query.Terms(field, values))
}

// FilterValueLower keeps documents whose field is >= bound.
func (q *Query[T]) FilterValueLower(field string, bound any) *Query[T] {
	return q.withFilter(query.Lower(field, bound))
}

// FilterValueUpper keeps documents whose field is <= bound.
func (q *Query[T]) FilterValueUpper(field string, bound any) *Query[T] {
	return q.withFilter(query.Upper(field, bound))
}

// FilterHasParentTerm keeps children whose parent of parentType has field equal to value.
func (q *Query[T]) FilterHasParentTerm(parentType, field string, value any) *Query[T] {
	return q.withFilter(query.HasParentTerm(parentType, field, value))
}

// Filter adds an engine-native filter clause.
func (q *Query[T]) Filter(raw json.RawMessage) *Query[T] {
	return q.withFilter(query.RawFilter(raw))
}

// AddRangeFacet counts matching documents per range. Buckets come back in input order.
func (q *Query[T]) AddRangeFacet(name, field string, ranges ...Range) *Query[T] {
	return q.withAgg(query.RangeFacet(name, field, ranges))
}

// AddTermFacet returns the size most frequent values of field with their counts.
func (q *Query[T]) AddTermFacet(name, field string, size int) *Query[T] {
	return q.withAgg(query.TermFacet(name, field, size))
}

// AddFacet adds an engine-native aggregation body, read back through Facets.
func (q *Query[T]) AddFacet(name string, raw json.RawMessage) *Query[T] {
	return q.withAgg(query.RawFacet(name, raw))
}

// AddTermAggregate buckets matching documents by the values of field.
func (q *Query[T]) AddTermAggregate(name, field string) *Query[T] {
	return q.withAgg(query.TermAggregate(name, field))
}

// AddDateAggregate buckets matching documents by calendar interval.
// Empty interval and format default to "month" and "MM/yyyy".
func (q *Query[T]) AddDateAggregate(name, field, interval, format string) *Query[T] {
	if interval == "" {
		interval = "month"
	}
	if format == "" {
		format = "MM/yyyy"
	}
	return q.withAgg(query.DateAggregate(name, field, interval, format))
}

// AddAggregate adds an engine-native aggregation body, read back through Aggregations.
func (q *Query[T]) AddAggregate(name string, raw json.RawMessage) *Query[T] {
	return q.withAgg(query.RawAggregate(name, raw))
}

// SuggesterOption configures a term suggester.
type SuggesterOption func(*query.Suggester)

// SuggestSort sets the candidate order: "score" (default) or "frequency".
func SuggestSort(sort string) SuggesterOption {
	return func(s *query.Suggester) { s.Sort = sort }
}

// SuggestMode sets which terms get suggestions: "missing" (default), "popular" or "always".
func SuggestMode(mode string) SuggesterOption {
	return func(s *query.Suggester) { s.Mode = mode }
}

// AddTermSuggester asks for spelling suggestions of text against field.
func (q *Query[T]) AddTermSuggester(name, field, text string, opts ...SuggesterOption) *Query[T] {
	s := query.Suggester{Name: name, Field: field, Text: text}
	for _, o := range opts {
		o(&s)
	}
	c := q.clone()
	if c.err == nil {
		if err := s.Validate(); err != nil {
			c.err = usageErr("%v", err)
		} else if slices.ContainsFunc(q.suggesters, func(x query.Suggester) bool { return x.Name == name }) {
			c.err = usageErr("suggester %q declared twice", name)
		}
	}
	c.suggesters = append(c.suggesters, s)
	return c
}

// OrderBy sorts by field, replacing any previous sort. Sorted hits carry no score.
func (q *Query[T]) OrderBy(field string, desc bool) *Query[T] {
	c := q.clone()
	c.sort = &query.Sort{Field: field, Desc: desc}
	return c
}

// Limit caps the number of hits. It may be set once per chain.
func (q *Query[T]) Limit(n int) (*Query[T], error) {
	if q.limit != nil {
		return nil, usageErr("limit already set to %d", *q.limit)
	}
	if n < 0 {
		return nil, usageErr("negative limit %d", n)
	}
	c := q.clone()
	c.limit = &n
	return c, nil
}

// Offset skips the first n hits. It may be set once per chain.
func (q *Query[T]) Offset(n int) (*Query[T], error) {
	if q.offset != nil {
		return nil, usageErr("offset already set to %d", *q.offset)
	}
	if n < 0 {
		return nil, usageErr("negative offset %d", n)
	}
	c := q.clone()
	c.offset = &n
	return c, nil
}

// ExecOption adjusts a single execution.
type ExecOption func(*execOptions)

type execOptions struct {
	start  *int
	size   *int
	fields []string
}

// WithStart skips n more hits after the query's offset.
func WithStart(n int) ExecOption {
	return func(o *execOptions) { o.start = &n }
}

// WithSize caps the page at n hits; the smaller of n and the query's limit wins.
func WithSize(n int) ExecOption {
	return func(o *execOptions) { o.size = &n }
}

// WithFields fetches only the named stored fields. Hydrate sees only those.
func WithFields(fields ...string) ExecOption {
	return func(o *execOptions) { o.fields = append([]string{}, fields...) }
}

func (q *Query[T]) request(opts []ExecOption) (*query.Request, error) {
	if q.err != nil {
		return nil, q.err
	}
	var eo execOptions
	for _, o := range opts {
		o(&eo)
	}
	if (eo.start != nil && *eo.start < 0) || (eo.size != nil && *eo.size < 0) {
		return nil, usageErr("negative start or size")
	}
	return &query.Request{
		DocTypes:   q.docTypes,
		Text:       q.text,
		TextFields: q.textFields,
		Filters:    q.filters,
		Aggs:       q.aggs,
		Suggesters: q.suggesters,
		Sort:       q.sort,
		Window:     query.ComputeWindow(q.offset, q.limit, eo.start, eo.size),
		Fields:     eo.fields,
	}, nil
}

// Body returns the search request Execute would send.
func (q *Query[T]) Body(opts ...ExecOption) ([]byte, error) {
	req, err := q.request(opts)
	if err != nil {
		return nil, err
	}
	return req.SearchBody()
}

// Execute sends the query and wraps the response. Hits are hydrated lazily.
func (q *Query[T]) Execute(ctx context.Context, opts ...ExecOption) (res *Result[T], err error) {
	defer func(start time.Time) {
		q.client.obs.observe(opSearch, start, err, zap.Strings("doc_types", q.docTypes))
	}(time.Now())

	req, err := q.request(opts)
	if err != nil {
		return nil, err
	}
	body, err := req.SearchBody()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSearch, err)
	}
	raw, err := q.client.store.Search(ctx, q.client.index, body)
	if err != nil {
		return nil, storeErr(opSearch, err)
	}
	return newResult[T](q.client.registry, q.defaultDocType(), q.aggs, raw), nil
}

// Count returns the number of matching documents. Sort, pagination,
// facets and suggesters do not apply.
func (q *Query[T]) Count(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) {
		q.client.obs.observe(opCount, start, err, zap.Strings("doc_types", q.docTypes))
	}(time.Now())

	req, err := q.request(nil)
	if err != nil {
		return 0, err
	}
	body, err := req.CountBody()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opCount, err)
	}
	n, err = q.client.store.Count(ctx, q.client.index, body)
	if err != nil {
		return 0, storeErr(opCount, err)
	}
	return n, nil
}

// defaultDocType is the type assumed for hits whose source lacks doc_type.
func (q *Query[T]) defaultDocType() string {
	if len(q.docTypes) == 1 {
		return q.docTypes[0]
	}
	return ""
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := s[:0:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
