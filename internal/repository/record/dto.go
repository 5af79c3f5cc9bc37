package record

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/esmap/internal/domain"
	"github.com/kailas-cloud/esmap/internal/domain/document"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// buildHashFields flattens a document into a map[string]string for HSET.
func buildHashFields(doc document.Document) (map[string]string, error) {
	m := make(map[string]string, len(doc.Fields)+1)
	if doc.ParentID != "" {
		m[document.ParentField] = doc.ParentID
	}
	for k, v := range doc.Fields {
		if k == document.ParentField {
			return nil, fmt.Errorf("field %q is reserved: %w", k, domain.ErrInvalidRecord)
		}
		s, err := formatValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		m[k] = s
	}
	return m, nil
}

func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value %T: %w", v, domain.ErrInvalidRecord)
	}
}

// parseHashFields rebuilds a document from a record hash. Declared fields are
// coerced to their engine type; undeclared fields stay strings.
func parseHashFields(dt mapping.DocType, id string, m map[string]string) (document.Document, error) {
	doc := document.Document{
		DocType: dt.Name,
		ID:      id,
		Fields:  make(document.Fields, len(m)),
	}
	for k, v := range m {
		if k == document.ParentField {
			doc.ParentID = v
			continue
		}
		f, ok := dt.Field(k)
		if !ok {
			doc.Fields[k] = v
			continue
		}
		val, err := f.Type.Coerce(v)
		if err != nil {
			return document.Document{}, fmt.Errorf("%s %s: %w: %w", dt.Name, id, domain.ErrInvalidRecord, err)
		}
		doc.Fields[k] = val
	}
	if dt.Parent != "" && doc.ParentID == "" {
		return document.Document{}, fmt.Errorf("%s %s: missing %s: %w", dt.Name, id, document.ParentField, domain.ErrInvalidRecord)
	}
	return doc, nil
}
