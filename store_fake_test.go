package esmap

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kailas-cloud/esmap/internal/db"
)

// fakeStore is an in-memory db.Store. Documents are kept per engine id;
// searches return the canned result and record the request body, or run
// against the stored documents when evaluate is set.
type fakeStore struct {
	mu sync.Mutex

	docs    map[string]db.Document
	indexed []db.Document
	bulks   int

	searchResult *db.SearchResult
	searchBodies [][]byte
	countResult  int64
	countBodies  [][]byte
	evaluate     bool

	indexExists bool
	created     []*db.IndexDefinition
	mappings    []map[string]any
	refreshes   int
	deletes     []string

	errs map[string]error // by db.Op*
}

var _ db.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:         make(map[string]db.Document),
		searchResult: &db.SearchResult{},
		errs:         make(map[string]error),
	}
}

func (f *fakeStore) fail(op string) error {
	return f.errs[op]
}

func (f *fakeStore) Ping(context.Context) error { return f.fail(db.OpPing) }
func (f *fakeStore) Close()                     {}
func (f *fakeStore) WaitForReady(context.Context, time.Duration) error {
	return f.fail(db.OpPing)
}

func (f *fakeStore) Index(_ context.Context, _ string, doc db.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(db.OpIndex); err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	f.docs[doc.ID] = doc
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeStore) Bulk(_ context.Context, _ string, docs []db.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(db.OpBulk); err != nil {
		return &db.Error{Op: db.OpBulk, Err: err}
	}
	f.bulks++
	for _, d := range docs {
		f.docs[d.ID] = d
		f.indexed = append(f.indexed, d)
	}
	return nil
}

func (f *fakeStore) Get(_ context.Context, index, id, routing string) (*db.Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(db.OpGet); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	d, ok := f.docs[id]
	if !ok || d.Routing != routing {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrDocumentNotFound}
	}
	return &db.Hit{Index: index, ID: d.ID, Routing: d.Routing, Source: json.RawMessage(d.Source)}, nil
}

func (f *fakeStore) Delete(_ context.Context, _ string, id, routing string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(db.OpDelete); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	d, ok := f.docs[id]
	if !ok || d.Routing != routing {
		return &db.Error{Op: db.OpDelete, Err: db.ErrDocumentNotFound}
	}
	delete(f.docs, id)
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeStore) Refresh(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.fail(db.OpRefresh)
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexExists {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrIndexExists}
	}
	f.created = append(f.created, def)
	f.indexExists = true
	return nil
}

func (f *fakeStore) DeleteIndex(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.indexExists {
		return &db.Error{Op: db.OpDeleteIndex, Err: db.ErrIndexNotFound}
	}
	f.indexExists = false
	f.docs = make(map[string]db.Document)
	return nil
}

func (f *fakeStore) IndexExists(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexExists, nil
}

func (f *fakeStore) PutMapping(_ context.Context, _ string, props map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.indexExists {
		return &db.Error{Op: db.OpPutMapping, Err: db.ErrIndexNotFound}
	}
	f.mappings = append(f.mappings, props)
	return nil
}

func (f *fakeStore) GetMapping(context.Context, string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.indexExists {
		return nil, &db.Error{Op: db.OpGetMapping, Err: db.ErrIndexNotFound}
	}
	return json.RawMessage(`{"properties":{}}`), nil
}

func (f *fakeStore) Search(_ context.Context, _ string, body []byte) (*db.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchBodies = append(f.searchBodies, body)
	if err := f.fail(db.OpSearch); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if f.evaluate {
		return f.run(body)
	}
	return f.searchResult, nil
}

func (f *fakeStore) Count(_ context.Context, _ string, body []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countBodies = append(f.countBodies, body)
	if err := f.fail(db.OpCount); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	if f.evaluate {
		res, err := f.run(body)
		if err != nil {
			return 0, err
		}
		return res.Total, nil
	}
	return f.countResult, nil
}

// lastSearch decodes the most recent search body.
func (f *fakeStore) lastSearch() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.searchBodies) == 0 {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal(f.searchBodies[len(f.searchBodies)-1], &m)
	return m
}
