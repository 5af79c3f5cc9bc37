package document

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// ParentField is the source-record field that carries the parent id of child documents.
const ParentField = "__parent"

// Document is a stored document of one type: the shape indexed into the
// engine and the shape handed to hydration.
type Document struct {
	DocType  string
	ID       string
	ParentID string
	Fields   Fields
}

// Validate checks identity fields.
func (d Document) Validate() error {
	if d.DocType == "" {
		return fmt.Errorf("document type is required")
	}
	if d.ID == "" {
		return fmt.Errorf("document id is required")
	}
	return nil
}

// DocumentType reports the document type of a generic document.
func (d Document) DocumentType() string { return d.DocType }

// Clone returns a copy with its own field map.
func (d Document) Clone() Document {
	d.Fields = maps.Clone(d.Fields)
	return d
}

// Fields are stored field values keyed by field name.
// Numbers decoded from engine responses are json.Number.
type Fields map[string]any

// String returns the field as a string; lists yield their first element.
func (f Fields) String(name string) string {
	switch v := first(f[name]).(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the field as an integer, or 0 when absent or not numeric.
func (f Fields) Int64(name string) int64 {
	switch v := first(f[name]).(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if fl, err := v.Float64(); err == nil {
			return int64(fl)
		}
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// Float64 returns the field as a float, or 0 when absent or not numeric.
func (f Fields) Float64(name string) float64 {
	switch v := first(f[name]).(type) {
	case json.Number:
		if fl, err := v.Float64(); err == nil {
			return fl
		}
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if fl, err := strconv.ParseFloat(v, 64); err == nil {
			return fl
		}
	}
	return 0
}

// Bool returns the field as a boolean.
func (f Fields) Bool(name string) bool {
	switch v := first(f[name]).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Has reports whether the field is present.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

func first(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}
