package esmap

import (
	"encoding/json"

	"github.com/kailas-cloud/esmap/internal/domain/document"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
	"github.com/kailas-cloud/esmap/internal/domain/query"
)

// Field declares a mapped property of a document type.
type Field = mapping.Field

// FieldType is the engine type of a mapped field.
type FieldType = mapping.Type

// Field type constants.
const (
	Text    = mapping.Text
	Keyword = mapping.Keyword
	Integer = mapping.Integer
	Long    = mapping.Long
	Float   = mapping.Float
	Double  = mapping.Double
	Boolean = mapping.Boolean
	Date    = mapping.Date
)

// Document is the stored form of an object: its type, identity and field values.
// It is what Mapping.Hydrate receives and what generic mappings index.
type Document = document.Document

// Fields are stored field values keyed by field name.
type Fields = document.Fields

// Range is one bucket of a range facet. Nil bounds are open.
type Range = query.Range

// QueryText is the free-text part of a query: none, keyword text or a raw engine query.
type QueryText = query.Text

// KeywordQuery creates a keyword text query parsed by the engine as a simple query string.
func KeywordQuery(s string) QueryText { return query.Keyword(s) }

// RawQuery wraps an engine-native query sent verbatim.
func RawQuery(q json.RawMessage) QueryText { return query.Raw(q) }

// Bound returns a pointer to f, for Range bounds.
func Bound(f float64) *float64 { return &f }

// ScoreSetter is implemented by types that want the relevance score of
// the hit they were hydrated from.
type ScoreSetter interface {
	SetScore(score float64)
}
