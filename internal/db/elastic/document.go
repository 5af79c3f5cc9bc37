package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmap/internal/db"
)

type (
	indexRequest  = esapi.IndexRequest
	getRequest    = esapi.GetRequest
	deleteRequest = esapi.DeleteRequest
)

// Index writes a single document, replacing any previous version.
func (s *Store) Index(ctx context.Context, index string, doc db.Document) error {
	opts := []func(*indexRequest){
		s.es.Index.WithDocumentID(doc.ID),
		s.es.Index.WithContext(ctx),
	}
	if doc.Routing != "" {
		opts = append(opts, s.es.Index.WithRouting(doc.Routing))
	}
	res, err := s.es.Index(index, bytes.NewReader(doc.Source), opts...)
	if err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpIndex, Err: classify(res)}
	}
	return nil
}

// bulkAction is the metadata line preceding each bulk source line.
type bulkAction struct {
	Index struct {
		ID      string `json:"_id"`
		Routing string `json:"routing,omitempty"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk writes many documents in one _bulk request.
func (s *Store) Bulk(ctx context.Context, index string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		var action bulkAction
		action.Index.ID = doc.ID
		action.Index.Routing = doc.Routing
		if err := enc.Encode(action); err != nil {
			return &db.Error{Op: db.OpBulk, Err: err}
		}
		buf.Write(bytes.TrimSpace(doc.Source))
		buf.WriteByte('\n')
	}

	res, err := s.es.Bulk(&buf, s.es.Bulk.WithIndex(index), s.es.Bulk.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpBulk, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpBulk, Err: classify(res)}
	}

	var out bulkResponse
	if err := decode(res, &out); err != nil {
		return &db.Error{Op: db.OpBulk, Err: err}
	}
	if !out.Errors {
		return nil
	}

	var failed []string
	for _, item := range out.Items {
		for _, r := range item {
			if r.Error != nil {
				failed = append(failed, fmt.Sprintf("%s: %s: %s", r.ID, r.Error.Type, r.Error.Reason))
			}
		}
	}
	return &db.Error{Op: db.OpBulk, Err: fmt.Errorf("%d of %d items failed: %s",
		len(failed), len(docs), strings.Join(failed, "; "))}
}

type getResponse struct {
	Index   string          `json:"_index"`
	ID      string          `json:"_id"`
	Routing string          `json:"_routing"`
	Found   bool            `json:"found"`
	Source  json.RawMessage `json:"_source"`
}

// Get fetches a document by engine id. A missing document yields db.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, index, id, routing string) (*db.Hit, error) {
	opts := []func(*getRequest){s.es.Get.WithContext(ctx)}
	if routing != "" {
		opts = append(opts, s.es.Get.WithRouting(routing))
	}
	res, err := s.es.Get(index, id, opts...)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpGet, Err: classify(res)}
	}

	var out getResponse
	if err := decode(res, &out); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if !out.Found {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrDocumentNotFound}
	}
	return &db.Hit{Index: out.Index, ID: out.ID, Routing: out.Routing, Source: out.Source}, nil
}

// Delete removes a document by engine id.
func (s *Store) Delete(ctx context.Context, index, id, routing string) error {
	opts := []func(*deleteRequest){s.es.Delete.WithContext(ctx)}
	if routing != "" {
		opts = append(opts, s.es.Delete.WithRouting(routing))
	}
	res, err := s.es.Delete(index, id, opts...)
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpDelete, Err: classify(res)}
	}
	return nil
}

// Refresh makes recent writes visible to search.
func (s *Store) Refresh(ctx context.Context, index string) error {
	res, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithIndex(index),
		s.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: db.OpRefresh, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpRefresh, Err: classify(res)}
	}
	return nil
}
