package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// Internal document fields.
const (
	// DocTypeField holds the document type name of every indexed document.
	DocTypeField = "doc_type"
	// JoinField holds the parent/child relation of documents whose type takes part in one.
	JoinField = "doc_join"
)

// idSeparator joins the document type and the application id into the engine _id.
const idSeparator = ":"

// patternChars are glob metacharacters; type names prefix record keys matched by SCAN.
const patternChars = "*?[]\\"

// DocType is the static description of one document type.
type DocType struct {
	Name   string
	Parent string
	Fields []Field
}

// Validate checks the document type declaration.
func (d DocType) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("document type name is required")
	}
	if strings.Contains(d.Name, idSeparator) {
		return fmt.Errorf("document type %q must not contain %q", d.Name, idSeparator)
	}
	if strings.ContainsAny(d.Name, patternChars) {
		return fmt.Errorf("document type %q must not contain any of %q", d.Name, patternChars)
	}
	if d.Parent == d.Name {
		return fmt.Errorf("document type %q cannot be its own parent", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("%s: duplicate field %q", d.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// QueryFields returns the boosted full-text field references of the type, in declaration order.
func (d DocType) QueryFields() []string {
	var out []string
	for _, f := range d.Fields {
		if qf := f.QueryField(); qf != "" {
			out = append(out, qf)
		}
	}
	return out
}

// Field looks up a declared field by name.
func (d DocType) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DocumentID builds the engine _id for an application id.
func DocumentID(docType, id string) string {
	return docType + idSeparator + id
}

// SplitDocumentID strips the document type prefix from an engine _id.
func SplitDocumentID(docType, engineID string) (string, bool) {
	return strings.CutPrefix(engineID, docType+idSeparator)
}

// Relations returns parent type -> child types for the given document types.
func Relations(types []DocType) map[string][]string {
	rel := make(map[string][]string)
	for _, d := range types {
		if d.Parent != "" {
			rel[d.Parent] = append(rel[d.Parent], d.Name)
		}
	}
	for p := range rel {
		sort.Strings(rel[p])
	}
	return rel
}

// Properties renders the single index mapping that holds every given document type.
// A field declared by several types must carry the same engine type in all of them.
func Properties(types []DocType) (map[string]any, error) {
	props := map[string]any{
		DocTypeField: map[string]any{"type": string(Keyword)},
	}
	owners := make(map[string]DocType)
	parents := make(map[string]string, len(types))
	for _, d := range types {
		parents[d.Name] = d.Parent
	}

	for _, d := range types {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if d.Parent != "" {
			grand, ok := parents[d.Parent]
			if !ok {
				return nil, fmt.Errorf("%s: parent type %q is not declared", d.Name, d.Parent)
			}
			if grand != "" {
				return nil, fmt.Errorf("%s: parent type %q is itself a child of %q", d.Name, d.Parent, grand)
			}
		}
		for _, f := range d.Fields {
			if prev, ok := owners[f.Name]; ok {
				pf, _ := prev.Field(f.Name)
				if pf.Type != f.Type {
					return nil, fmt.Errorf("field %q is %s in %s but %s in %s",
						f.Name, pf.Type, prev.Name, f.Type, d.Name)
				}
				continue
			}
			owners[f.Name] = d
			props[f.Name] = f.Property()
		}
	}

	if rel := Relations(types); len(rel) > 0 {
		relations := make(map[string]any, len(rel))
		for parent, children := range rel {
			if len(children) == 1 {
				relations[parent] = children[0]
			} else {
				relations[parent] = children
			}
		}
		props[JoinField] = map[string]any{
			"type":      "join",
			"relations": relations,
		}
	}
	return props, nil
}
