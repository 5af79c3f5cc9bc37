// Package record keeps application records as Redis hashes, the source
// documents are re-indexed from.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/domain/document"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// DefaultPrefix namespaces record keys.
const DefaultPrefix = "esmap:"

// store is the consumer interface for records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores documents as hashes under <prefix><DocType>:<id>.
type Repo struct {
	store  store
	prefix string
}

// New creates a record repository. An empty prefix uses DefaultPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Put stores documents in one pipeline, replacing fields of existing records.
func (r *Repo) Put(ctx context.Context, docs []document.Document) error {
	items := make([]db.HashSetItem, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRecord, err)
		}
		fields, err := buildHashFields(doc)
		if err != nil {
			return fmt.Errorf("%s %s: %w", doc.DocType, doc.ID, err)
		}
		if len(fields) == 0 {
			return fmt.Errorf("%s %s: no fields: %w", doc.DocType, doc.ID, domain.ErrInvalidRecord)
		}
		items = append(items, db.HashSetItem{Key: r.key(doc.DocType, doc.ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset records: %w", err)
	}
	return nil
}

// Get loads one record.
func (r *Repo) Get(ctx context.Context, dt mapping.DocType, id string) (document.Document, error) {
	key := r.key(dt.Name, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return document.Document{}, fmt.Errorf("record %s: %w", key, domain.ErrNotFound)
		}
		return document.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseHashFields(dt, id, m)
}

// Delete removes one record. Deleting a missing record is not an error.
func (r *Repo) Delete(ctx context.Context, docType, id string) error {
	key := r.key(docType, id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List loads every record of a document type. Records deleted between the
// scan and the fetch are skipped; a record that cannot be parsed fails the call.
func (r *Repo) List(ctx context.Context, dt mapping.DocType) ([]document.Document, error) {
	typePrefix := r.key(dt.Name, "")
	keys, err := r.store.Scan(ctx, escapePattern(typePrefix)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dt.Name, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", dt.Name, err)
	}

	docs := make([]document.Document, 0, len(keys))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		id := strings.TrimPrefix(keys[i], typePrefix)
		doc, err := parseHashFields(dt, id, m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// escapePattern quotes glob metacharacters so a key prefix matches literally.
func escapePattern(s string) string {
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(`*?[]\^`, c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repo) key(docType, id string) string {
	return r.prefix + mapping.DocumentID(docType, id)
}
