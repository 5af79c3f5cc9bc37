package reindex

import (
	"context"

	"github.com/kailas-cloud/esmap/internal/domain/document"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// RecordLister loads every source record of a document type.
type RecordLister interface {
	List(ctx context.Context, dt mapping.DocType) ([]document.Document, error)
}

// DocumentIndexer bulk-indexes generic documents.
type DocumentIndexer interface {
	IndexDocuments(ctx context.Context, docs []document.Document) error
}

// TypeRegistry lists the registered document types.
type TypeRegistry interface {
	DocTypes() []mapping.DocType
}
