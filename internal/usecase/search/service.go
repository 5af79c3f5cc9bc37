package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/esmap"
)

// Service runs wire-described queries against generic document types.
type Service struct {
	client *esmap.Client
}

// New creates a search service.
func New(client *esmap.Client) *Service {
	return &Service{client: client}
}

// Search executes req over docType and returns one page of hits.
func (s *Service) Search(ctx context.Context, docType string, req *Request) (*Response, error) {
	q, opts, err := s.build(docType, req)
	if err != nil {
		return nil, err
	}
	res, err := q.Execute(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", docType, err)
	}
	hits, err := res.Hits()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", docType, err)
	}

	out := &Response{
		Total:        res.Total(),
		Hits:         make([]Hit, 0, len(hits)),
		Facets:       res.Facets(),
		Aggregations: res.Aggregations(),
		Suggest:      res.Suggests(),
	}
	for _, h := range hits {
		out.Hits = append(out.Hits, Hit{
			ID:       h.ID,
			ParentID: h.ParentID,
			DocType:  h.DocType,
			Score:    h.Score,
			Fields:   h.Fields,
		})
	}
	return out, nil
}

// Count returns the number of documents of docType matching req.
// Paging, sort, facets and suggesters in req are ignored.
func (s *Service) Count(ctx context.Context, docType string, req *Request) (int64, error) {
	q, _, err := s.build(docType, req)
	if err != nil {
		return 0, err
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", docType, err)
	}
	return n, nil
}

// Body returns the engine request Search would send.
func (s *Service) Body(docType string, req *Request) ([]byte, error) {
	q, opts, err := s.build(docType, req)
	if err != nil {
		return nil, err
	}
	return q.Body(opts...)
}

func (s *Service) build(docType string, req *Request) (*esmap.Query[esmap.Document], []esmap.ExecOption, error) {
	if req == nil {
		req = &Request{}
	}

	var text []esmap.QueryText
	switch {
	case req.Text != "" && len(req.Raw) > 0:
		return nil, nil, fmt.Errorf("%w: text and raw are exclusive", esmap.ErrUsage)
	case req.Text != "":
		text = append(text, esmap.KeywordQuery(req.Text))
	case len(req.Raw) > 0:
		text = append(text, esmap.RawQuery(req.Raw))
	}

	q := esmap.SearchType[esmap.Document](s.client, docType, text...)
	for i, f := range req.Filters {
		var err error
		if q, err = applyFilter(q, f); err != nil {
			return nil, nil, fmt.Errorf("filter %d: %w", i, err)
		}
	}
	for _, a := range req.Facets {
		var err error
		if q, err = applyFacet(q, a); err != nil {
			return nil, nil, err
		}
	}
	for _, a := range req.Aggregations {
		var err error
		if q, err = applyAggregation(q, a); err != nil {
			return nil, nil, err
		}
	}
	for _, sg := range req.Suggesters {
		var opts []esmap.SuggesterOption
		if sg.Sort != "" {
			opts = append(opts, esmap.SuggestSort(sg.Sort))
		}
		if sg.Mode != "" {
			opts = append(opts, esmap.SuggestMode(sg.Mode))
		}
		q = q.AddTermSuggester(sg.Name, sg.Field, sg.Text, opts...)
	}
	if req.Sort != nil {
		q = q.OrderBy(req.Sort.Field, req.Sort.Desc)
	}

	var err error
	if req.Limit != nil {
		if q, err = q.Limit(*req.Limit); err != nil {
			return nil, nil, err
		}
	}
	if req.Offset != nil {
		if q, err = q.Offset(*req.Offset); err != nil {
			return nil, nil, err
		}
	}

	var opts []esmap.ExecOption
	if req.Start != nil {
		opts = append(opts, esmap.WithStart(*req.Start))
	}
	if req.Size != nil {
		opts = append(opts, esmap.WithSize(*req.Size))
	}
	if len(req.Fields) > 0 {
		opts = append(opts, esmap.WithFields(req.Fields...))
	}
	return q, opts, nil
}

type query = esmap.Query[esmap.Document]

func applyFilter(q *query, f Filter) (*query, error) {
	switch f.Kind {
	case FilterTerm:
		return q.FilterTerm(f.Field, f.Value), nil
	case FilterTerms:
		return q.FilterTerms(f.Field, f.Values...), nil
	case FilterLower:
		return q.FilterValueLower(f.Field, f.Value), nil
	case FilterUpper:
		return q.FilterValueUpper(f.Field, f.Value), nil
	case FilterHasParentTerm:
		return q.FilterHasParentTerm(f.ParentType, f.Field, f.Value), nil
	case FilterRaw:
		return q.Filter(f.Raw), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter kind %q", esmap.ErrUsage, f.Kind)
	}
}

func applyFacet(q *query, a Aggregation) (*query, error) {
	switch a.Kind {
	case AggRange:
		return q.AddRangeFacet(a.Name, a.Field, a.Ranges...), nil
	case AggTerm:
		return q.AddTermFacet(a.Name, a.Field, a.Size), nil
	case AggRaw:
		return q.AddFacet(a.Name, a.Raw), nil
	default:
		return nil, fmt.Errorf("%w: facet %q: unknown kind %q", esmap.ErrUsage, a.Name, a.Kind)
	}
}

func applyAggregation(q *query, a Aggregation) (*query, error) {
	switch a.Kind {
	case AggTerm:
		return q.AddTermAggregate(a.Name, a.Field), nil
	case AggDate:
		return q.AddDateAggregate(a.Name, a.Field, a.Interval, a.Format), nil
	case AggRaw:
		return q.AddAggregate(a.Name, a.Raw), nil
	default:
		return nil, fmt.Errorf("%w: aggregation %q: unknown kind %q", esmap.ErrUsage, a.Name, a.Kind)
	}
}
