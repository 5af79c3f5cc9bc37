package reindex

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
	"github.com/kailas-cloud/esmap/internal/logger"
	"github.com/kailas-cloud/esmap/internal/metrics"
)

// DefaultMaxBatchSize is the number of documents sent per bulk request.
const DefaultMaxBatchSize = 500

// Result is the outcome of re-indexing one document type.
type Result struct {
	DocType string
	Indexed int
	Err     error
}

// Service copies source records into the search index.
type Service struct {
	records      RecordLister
	index        DocumentIndexer
	types        TypeRegistry
	maxBatchSize int
}

// New creates a reindex service.
func New(records RecordLister, index DocumentIndexer, types TypeRegistry) *Service {
	return &Service{
		records:      records,
		index:        index,
		types:        types,
		maxBatchSize: DefaultMaxBatchSize,
	}
}

// WithMaxBatchSize configures the bulk request size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Run re-indexes the named document types, or every registered type when
// none are named. Parents go before their children. A failing type does
// not stop the others; its error is reported in its Result.
func (s *Service) Run(ctx context.Context, docTypes ...string) []Result {
	types, err := s.selectTypes(docTypes)
	if err != nil {
		results := make([]Result, len(docTypes))
		for i, name := range docTypes {
			results[i] = Result{DocType: name, Err: err}
		}
		return results
	}

	results := make([]Result, 0, len(types))
	for _, dt := range types {
		typeCtx := logger.With(ctx, logger.DocType(dt.Name))
		n, err := s.reindexType(typeCtx, dt)
		metrics.ReindexDocumentsTotal.WithLabelValues(dt.Name).Add(float64(n))
		log := logger.FromContext(typeCtx)
		if err != nil {
			metrics.ReindexErrorsTotal.WithLabelValues(dt.Name).Inc()
			log.Warn("reindex failed", zap.Int("indexed", n), zap.Error(err))
		} else {
			log.Info("reindexed", zap.Int("indexed", n))
		}
		results = append(results, Result{DocType: dt.Name, Indexed: n, Err: err})
	}
	return results
}

func (s *Service) reindexType(ctx context.Context, dt mapping.DocType) (int, error) {
	docs, err := s.records.List(ctx, dt)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", dt.Name, err)
	}

	indexed := 0
	for batch := range slices.Chunk(docs, s.maxBatchSize) {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := s.index.IndexDocuments(ctx, batch); err != nil {
			return indexed, fmt.Errorf("index %s batch at %d: %w", dt.Name, indexed, err)
		}
		indexed += len(batch)
	}
	return indexed, nil
}

// selectTypes resolves names to declarations, ordered parents first.
func (s *Service) selectTypes(names []string) ([]mapping.DocType, error) {
	all := s.types.DocTypes()
	if len(names) == 0 {
		return parentsFirst(all), nil
	}
	byName := make(map[string]mapping.DocType, len(all))
	for _, dt := range all {
		byName[dt.Name] = dt
	}
	out := make([]mapping.DocType, 0, len(names))
	for _, name := range names {
		dt, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: document type %q", domain.ErrNotRegistered, name)
		}
		out = append(out, dt)
	}
	return parentsFirst(out), nil
}

func parentsFirst(types []mapping.DocType) []mapping.DocType {
	out := make([]mapping.DocType, 0, len(types))
	for _, dt := range types {
		if dt.Parent == "" {
			out = append(out, dt)
		}
	}
	for _, dt := range types {
		if dt.Parent != "" {
			out = append(out, dt)
		}
	}
	return out
}
