package document

import (
	"context"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/domain/document"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// Index is the search-engine side of document storage.
type Index interface {
	GetDocument(ctx context.Context, docType, id string, opts ...esmap.DocOption) (esmap.Document, error)
	IndexDocument(ctx context.Context, doc esmap.Document) error
	DeleteDocument(ctx context.Context, docType, id string, opts ...esmap.DocOption) error
}

// RecordStore is the source of truth documents are written through to.
type RecordStore interface {
	Put(ctx context.Context, docs []document.Document) error
	Delete(ctx context.Context, docType, id string) error
}

// TypeRegistry resolves document type names.
type TypeRegistry interface {
	Lookup(docType string) (mapping.DocType, bool)
}
