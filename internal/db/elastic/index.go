package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kailas-cloud/esmap/internal/db"
)

// CreateIndex creates an index with settings and mapping properties.
// An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	body, err := encode(def.Body())
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	res, err := s.es.Indices.Create(def.Name,
		s.es.Indices.Create.WithBody(body),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpCreateIndex, Err: classify(res)}
	}
	return nil
}

// DeleteIndex drops an index. A missing index yields db.ErrIndexNotFound.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	res, err := s.es.Indices.Delete([]string{name}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpDeleteIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		err := classify(res)
		if res.StatusCode == http.StatusNotFound {
			err = db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDeleteIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether an index exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.es.Indices.Exists([]string{name}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	defer closeBody(res)
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexExists, Err: &db.StatusError{Status: res.StatusCode}}
	}
}

// PutMapping adds mapping properties to an existing index.
func (s *Store) PutMapping(ctx context.Context, index string, properties map[string]any) error {
	body, err := encode(map[string]any{"properties": properties})
	if err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: err}
	}
	res, err := s.es.Indices.PutMapping([]string{index}, body,
		s.es.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPutMapping, Err: classify(res)}
	}
	return nil
}

// GetMapping returns the mapping of an index as reported by the engine.
func (s *Store) GetMapping(ctx context.Context, index string) (json.RawMessage, error) {
	res, err := s.es.Indices.GetMapping(
		s.es.Indices.GetMapping.WithIndex(index),
		s.es.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpGetMapping, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpGetMapping, Err: classify(res)}
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpGetMapping, Err: err}
	}
	var byIndex map[string]struct {
		Mappings json.RawMessage `json:"mappings"`
	}
	if err := json.Unmarshal(raw, &byIndex); err != nil {
		return nil, &db.Error{Op: db.OpGetMapping, Err: err}
	}
	if m, ok := byIndex[index]; ok {
		return m.Mappings, nil
	}
	// Aliases resolve to the concrete index name.
	for _, m := range byIndex {
		return m.Mappings, nil
	}
	return nil, &db.Error{Op: db.OpGetMapping, Err: db.ErrIndexNotFound}
}
