package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores l in ctx.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// With returns a context whose logger adds fields to the one ctx carries.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}

// Index names the index an entry concerns.
func Index(name string) zap.Field { return zap.String("index", name) }

// RequestID tags entries of one HTTP request.
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// DocType names the document type an entry concerns.
func DocType(name string) zap.Field { return zap.String("doc_type", name) }

// DocID is the application id of a document.
func DocID(id string) zap.Field { return zap.String("doc_id", id) }

// ParentID is the application id of a child document's parent.
func ParentID(id string) zap.Field { return zap.String("parent_id", id) }
