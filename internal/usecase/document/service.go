package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
	"github.com/kailas-cloud/esmap/internal/logger"
)

// Service handles single-document reads and writes. When a record store is
// configured, writes go to it first and the index follows.
type Service struct {
	index   Index
	records RecordStore
	types   TypeRegistry
}

// New creates a document service. records may be nil.
func New(index Index, records RecordStore, types TypeRegistry) *Service {
	return &Service{index: index, records: records, types: types}
}

// Get fetches a stored document from the index.
func (s *Service) Get(ctx context.Context, docType, id, parentID string) (esmap.Document, error) {
	if _, err := s.docType(docType); err != nil {
		return esmap.Document{}, err
	}
	doc, err := s.index.GetDocument(ctx, docType, id, esmap.WithParent(parentID))
	if err != nil {
		return esmap.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Put stores doc in the record store, then indexes it.
func (s *Service) Put(ctx context.Context, doc esmap.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUsage, err)
	}
	dt, err := s.docType(doc.DocType)
	if err != nil {
		return err
	}
	if dt.Parent != "" && doc.ParentID == "" {
		return fmt.Errorf("%w: %s documents need a parent id", domain.ErrUsage, dt.Name)
	}

	if s.records != nil {
		if err := s.records.Put(ctx, []esmap.Document{doc}); err != nil {
			return fmt.Errorf("store record: %w", err)
		}
	}
	if err := s.index.IndexDocument(ctx, doc); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	logger.FromContext(ctx).Debug("document stored",
		logger.DocType(doc.DocType),
		logger.DocID(doc.ID),
		logger.ParentID(doc.ParentID),
		zap.Bool("record", s.records != nil),
	)
	return nil
}

// Delete removes a document from the index, then from the record store.
// With safe set, a document missing from the index is not an error.
func (s *Service) Delete(ctx context.Context, docType, id, parentID string, safe bool) error {
	if _, err := s.docType(docType); err != nil {
		return err
	}
	opts := []esmap.DocOption{esmap.WithParent(parentID)}
	if safe {
		opts = append(opts, esmap.Safe())
	}
	if err := s.index.DeleteDocument(ctx, docType, id, opts...); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if s.records != nil {
		if err := s.records.Delete(ctx, docType, id); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
	}
	return nil
}

func (s *Service) docType(name string) (mapping.DocType, error) {
	dt, ok := s.types.Lookup(name)
	if !ok {
		return mapping.DocType{}, fmt.Errorf("document type %q: %w", name, domain.ErrNotRegistered)
	}
	return dt, nil
}
