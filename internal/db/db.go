package db

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a single engine document ready to be written.
type Document struct {
	ID      string
	Routing string
	Source  []byte
}

// DocumentStore provides single-document and bulk write/read operations.
type DocumentStore interface {
	Index(ctx context.Context, index string, doc Document) error
	Bulk(ctx context.Context, index string, docs []Document) error
	Get(ctx context.Context, index, id, routing string) (*Hit, error)
	Delete(ctx context.Context, index, id, routing string) error
	Refresh(ctx context.Context, index string) error
}

// IndexManager provides index and mapping lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	PutMapping(ctx context.Context, index string, properties map[string]any) error
	GetMapping(ctx context.Context, index string) (json.RawMessage, error)
}

// Searcher provides search and count operations.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResult, error)
	Count(ctx context.Context, index string, body []byte) (int64, error)
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// RecordStore is the hash store application records are kept in.
type RecordStore interface {
	Pinger
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Close()
}
