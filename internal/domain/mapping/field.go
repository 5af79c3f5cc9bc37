package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the engine type of a mapped field.
type Type string

// Field type constants.
const (
	Text    Type = "text"
	Keyword Type = "keyword"
	Integer Type = "integer"
	Long    Type = "long"
	Float   Type = "float"
	Double  Type = "double"
	Boolean Type = "boolean"
	Date    Type = "date"
)

var validTypes = map[Type]bool{
	Text: true, Keyword: true, Integer: true, Long: true,
	Float: true, Double: true, Boolean: true, Date: true,
}

// ParseType converts a config string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !validTypes[t] {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// Coerce converts a stored string value into the Go value the engine expects for t.
// Used when documents come from string-only sources (Redis hashes).
func (t Type) Coerce(s string) (any, error) {
	switch t {
	case Integer, Long:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return v, nil
	case Float, Double:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return v, nil
	case Boolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return v, nil
	case Date:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return s, nil
	default:
		return s, nil
	}
}

// reserved names are the internal fields every indexed document carries.
var reservedFieldNames = map[string]bool{
	DocTypeField: true,
	JoinField:    true,
}

// Field declares a single mapped property of a document type.
type Field struct {
	Name string
	Type Type
	// Boost weights the field in keyword queries. Zero means no boost.
	Boost float64
	// Analyzer applies to text fields.
	Analyzer string
	// Normalizer applies to keyword fields (for example the built-in "lowercase").
	Normalizer string
	// NotIndexed stores the value without making it searchable.
	NotIndexed bool
}

// Validate checks the field declaration.
func (f Field) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	if strings.HasPrefix(f.Name, "_") {
		return fmt.Errorf("field name %q must not start with an underscore", f.Name)
	}
	if reservedFieldNames[f.Name] {
		return fmt.Errorf("field name %q is reserved", f.Name)
	}
	if !validTypes[f.Type] {
		return fmt.Errorf("invalid field type %q for %q", f.Type, f.Name)
	}
	if f.Boost < 0 {
		return fmt.Errorf("negative boost for %q", f.Name)
	}
	if f.Analyzer != "" && f.Type != Text {
		return fmt.Errorf("analyzer on non-text field %q", f.Name)
	}
	if f.Normalizer != "" && f.Type != Keyword {
		return fmt.Errorf("normalizer on non-keyword field %q", f.Name)
	}
	return nil
}

// Property renders the engine mapping property for the field.
func (f Field) Property() map[string]any {
	p := map[string]any{"type": string(f.Type)}
	if f.Analyzer != "" {
		p["analyzer"] = f.Analyzer
	}
	if f.Normalizer != "" {
		p["normalizer"] = f.Normalizer
	}
	if f.NotIndexed {
		p["index"] = false
	}
	return p
}

// QueryField returns the field reference used by keyword queries
// ("title^5" for boosted text fields), or "" when the field is not full-text searchable.
func (f Field) QueryField() string {
	if f.Type != Text || f.NotIndexed {
		return ""
	}
	if f.Boost > 0 && f.Boost != 1 {
		return f.Name + "^" + strconv.FormatFloat(f.Boost, 'f', -1, 64)
	}
	return f.Name
}
