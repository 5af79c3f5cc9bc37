package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmap/internal/db"
)

// total accepts both the object form {"value": n} and a bare integer.
type total int64

func (t *total) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = total(obj.Value)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("hits.total: %w", err)
	}
	*t = total(n)
	return nil
}

type searchResponse struct {
	Hits struct {
		Total total `json:"total"`
		Hits  []struct {
			Index   string          `json:"_index"`
			ID      string          `json:"_id"`
			Score   *float64        `json:"_score"`
			Routing string          `json:"_routing"`
			Source  json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
	Suggest      map[string]json.RawMessage `json:"suggest"`
}

// Search runs a search request body against an index.
func (s *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	res, err := s.es.Search(
		s.es.Search.WithIndex(index),
		s.es.Search.WithBody(bytes.NewReader(body)),
		s.es.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: classify(res)}
	}

	var out searchResponse
	if err := decode(res, &out); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	result := &db.SearchResult{
		Total:        int64(out.Hits.Total),
		Hits:         make([]db.Hit, 0, len(out.Hits.Hits)),
		Aggregations: out.Aggregations,
		Suggest:      out.Suggest,
	}
	for _, h := range out.Hits.Hits {
		result.Hits = append(result.Hits, db.Hit{
			Index:   h.Index,
			ID:      h.ID,
			Score:   h.Score,
			Routing: h.Routing,
			Source:  h.Source,
		})
	}
	return result, nil
}

// Count returns the number of documents matching a count request body.
func (s *Store) Count(ctx context.Context, index string, body []byte) (int64, error) {
	res, err := s.es.Count(
		s.es.Count.WithIndex(index),
		s.es.Count.WithBody(bytes.NewReader(body)),
		s.es.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return 0, &db.Error{Op: db.OpCount, Err: classify(res)}
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := decode(res, &out); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return out.Count, nil
}
