package esmap

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/esmap/internal/db"
)

// evalBody is the part of a search or count body the fake engine understands.
type evalBody struct {
	Query map[string]any                      `json:"query"`
	From  *int                                `json:"from"`
	Size  *int                                `json:"size"`
	Sort  []map[string]struct{ Order string } `json:"sort"`
}

// run evaluates match_all, bool, term, terms and range clauses over the
// stored documents. Callers hold f.mu.
func (f *fakeStore) run(body []byte) (*db.SearchResult, error) {
	var req evalBody
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("fake engine: %w", err)
	}

	type match struct {
		doc db.Document
		src map[string]any
	}
	var matched []match
	for _, d := range f.docs {
		var src map[string]any
		if err := json.Unmarshal(d.Source, &src); err != nil {
			return nil, err
		}
		ok, err := evalClause(req.Query, src)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, match{doc: d, src: src})
		}
	}
	slices.SortFunc(matched, func(a, b match) int { return cmp.Compare(a.doc.ID, b.doc.ID) })

	var score *float64
	if len(req.Sort) == 0 {
		score = Bound(1)
	}
	for _, s := range req.Sort {
		for field, o := range s {
			slices.SortStableFunc(matched, func(a, b match) int {
				c := compareValues(a.src[field], b.src[field])
				if o.Order == "desc" {
					return -c
				}
				return c
			})
		}
	}

	res := &db.SearchResult{Total: int64(len(matched))}
	from, size := 0, 10
	if req.From != nil {
		from = *req.From
	}
	if req.Size != nil {
		size = *req.Size
	}
	for i := from; i < len(matched) && i < from+size; i++ {
		d := matched[i].doc
		res.Hits = append(res.Hits, db.Hit{ID: d.ID, Routing: d.Routing, Score: score, Source: d.Source})
	}
	return res, nil
}

func evalClause(q map[string]any, src map[string]any) (bool, error) {
	if q == nil {
		return true, nil
	}
	if len(q) != 1 {
		return false, fmt.Errorf("fake engine: clause %v", q)
	}
	for kind, v := range q {
		body, _ := v.(map[string]any)
		switch kind {
		case "match_all":
			return true, nil
		case "bool":
			var clauses []any
			if must, ok := body["must"].(map[string]any); ok {
				clauses = append(clauses, must)
			}
			filters, _ := body["filter"].([]any)
			for _, c := range append(clauses, filters...) {
				cm, _ := c.(map[string]any)
				ok, err := evalClause(cm, src)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		case "term":
			for field, want := range body {
				return src[field] == want, nil
			}
		case "terms":
			for field, want := range body {
				values, _ := want.([]any)
				return slices.Contains(values, src[field]), nil
			}
		case "range":
			for field, b := range body {
				bounds, _ := b.(map[string]any)
				got, ok := src[field].(float64)
				if !ok {
					return false, nil
				}
				if lo, ok := bounds["gte"].(float64); ok && got < lo {
					return false, nil
				}
				if hi, ok := bounds["lte"].(float64); ok && got > hi {
					return false, nil
				}
				return true, nil
			}
		}
		return false, fmt.Errorf("fake engine: unsupported clause %q", kind)
	}
	return false, nil
}

func compareValues(a, b any) int {
	switch a := a.(type) {
	case float64:
		b, _ := b.(float64)
		return cmp.Compare(a, b)
	case string:
		b, _ := b.(string)
		return cmp.Compare(a, b)
	}
	return 0
}
