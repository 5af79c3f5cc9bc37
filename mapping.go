package esmap

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// Mapping declares how objects of type T are stored as documents of one type.
type Mapping[T any] struct {
	// DocType names the document type. Unique within a registry.
	DocType string
	// Parent names the parent document type, if T documents are children.
	Parent string
	// Fields are the mapped properties, in declaration order.
	Fields []Field

	// ID returns the document id of an object.
	ID func(T) string
	// ParentID returns the parent document id. Required when Parent is set.
	ParentID func(T) string
	// Extract returns the field values to index.
	Extract func(T) map[string]any
	// Hydrate builds an object from a stored document.
	Hydrate func(Document) (T, error)
}

// descriptor is the type-erased form of a registered Mapping.
type descriptor struct {
	docType  mapping.DocType
	goType   reflect.Type
	id       func(any) string
	parentID func(any) string
	extract  func(any) map[string]any
	hydrate  func(Document) (any, error)
}

// typedDocument is implemented by generic objects that carry their own document type.
type typedDocument interface {
	DocumentType() string
}

// Registry holds the mappings of every document type stored in one index.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*descriptor
	byType map[reflect.Type][]*descriptor
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*descriptor),
		byType: make(map[reflect.Type][]*descriptor),
	}
}

// Register adds the mapping of T to r.
// A Go type may be registered under several document types only if its
// values report their own type through a DocumentType() string method.
func Register[T any](r *Registry, m Mapping[T]) error {
	dt := mapping.DocType{Name: m.DocType, Parent: m.Parent, Fields: m.Fields}
	if err := dt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	switch {
	case m.ID == nil:
		return fmt.Errorf("%w: %s: ID func is required", ErrInvalidMapping, m.DocType)
	case m.Extract == nil:
		return fmt.Errorf("%w: %s: Extract func is required", ErrInvalidMapping, m.DocType)
	case m.Hydrate == nil:
		return fmt.Errorf("%w: %s: Hydrate func is required", ErrInvalidMapping, m.DocType)
	case m.Parent != "" && m.ParentID == nil:
		return fmt.Errorf("%w: %s: ParentID func is required for child types", ErrInvalidMapping, m.DocType)
	}

	d := &descriptor{
		docType: dt,
		goType:  reflect.TypeFor[T](),
		id:      func(v any) string { return m.ID(v.(T)) },
		extract: func(v any) map[string]any { return m.Extract(v.(T)) },
		hydrate: func(doc Document) (any, error) { return m.Hydrate(doc) },
	}
	if m.ParentID != nil {
		d.parentID = func(v any) string { return m.ParentID(v.(T)) }
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[dt.Name]; ok {
		return fmt.Errorf("%w: document type %q already registered", ErrInvalidMapping, dt.Name)
	}
	if err := r.checkDepth(dt); err != nil {
		return err
	}
	if prev := r.byType[d.goType]; len(prev) > 0 && !d.goType.Implements(reflect.TypeFor[typedDocument]()) {
		return fmt.Errorf("%w: %s is already registered as %q", ErrInvalidMapping, d.goType, prev[0].docType.Name)
	}
	r.byName[dt.Name] = d
	r.byType[d.goType] = append(r.byType[d.goType], d)
	r.order = append(r.order, dt.Name)
	return nil
}

// MustRegister calls Register and panics on error.
func MustRegister[T any](r *Registry, m Mapping[T]) {
	if err := Register(r, m); err != nil {
		panic(err)
	}
}

// DocumentMapping returns a mapping for generic documents of one type.
// Fields not declared are still stored and returned.
func DocumentMapping(docType, parent string, fields []Field) Mapping[Document] {
	m := Mapping[Document]{
		DocType: docType,
		Parent:  parent,
		Fields:  fields,
		ID:      func(d Document) string { return d.ID },
		Extract: func(d Document) map[string]any { return d.Fields },
		Hydrate: func(d Document) (Document, error) { return d, nil },
	}
	if parent != "" {
		m.ParentID = func(d Document) string { return d.ParentID }
	}
	return m
}

// DocTypes returns the registered document types in registration order.
func (r *Registry) DocTypes() []mapping.DocType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mapping.DocType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].docType)
	}
	return out
}

// Lookup returns the declaration of a registered document type.
func (r *Registry) Lookup(docType string) (mapping.DocType, bool) {
	d, err := r.byDocType(docType)
	if err != nil {
		return mapping.DocType{}, false
	}
	return d.docType, true
}

// Properties renders the index mapping holding every registered type.
func (r *Registry) Properties() (map[string]any, error) {
	props, err := mapping.Properties(r.DocTypes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	return props, nil
}

// checkDepth rejects join hierarchies deeper than parent and child.
// Children are routed by their parent's id, so a grandchild would land on
// another shard than its grandparent. Callers hold r.mu.
func (r *Registry) checkDepth(dt mapping.DocType) error {
	if p, ok := r.byName[dt.Parent]; ok && p.docType.Parent != "" {
		return fmt.Errorf("%w: %s: parent type %q is itself a child of %q",
			ErrInvalidMapping, dt.Name, dt.Parent, p.docType.Parent)
	}
	if dt.Parent == "" {
		return nil
	}
	for _, d := range r.byName {
		if d.docType.Parent == dt.Name {
			return fmt.Errorf("%w: %s: child type %q would become a grandchild of %q",
				ErrInvalidMapping, dt.Name, d.docType.Name, dt.Parent)
		}
	}
	return nil
}

// isParent reports whether some registered type declares docType as its parent.
func (r *Registry) isParent(docType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byName {
		if d.docType.Parent == docType {
			return true
		}
	}
	return false
}

func (r *Registry) byDocType(docType string) (*descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[docType]
	if !ok {
		return nil, fmt.Errorf("%w: document type %q", ErrNotRegistered, docType)
	}
	return d, nil
}

func (r *Registry) byGoType(t reflect.Type) (*descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds := r.byType[t]
	switch len(ds) {
	case 0:
		return nil, fmt.Errorf("%w: Go type %s", ErrNotRegistered, t)
	case 1:
		return ds[0], nil
	default:
		return nil, fmt.Errorf("%w: Go type %s maps to %d document types, name one", ErrUsage, t, len(ds))
	}
}

// forType resolves the single mapping of T.
func forType[T any](r *Registry) (*descriptor, error) {
	return r.byGoType(reflect.TypeFor[T]())
}

// forObject resolves the mapping of a value, preferring its own document type.
func forObject[T any](r *Registry, obj T) (*descriptor, error) {
	if td, ok := any(obj).(typedDocument); ok && td.DocumentType() != "" {
		d, err := r.byDocType(td.DocumentType())
		if err != nil {
			return nil, err
		}
		if d.goType != reflect.TypeFor[T]() {
			return nil, fmt.Errorf("%w: document type %q is mapped to %s, not %s",
				ErrUsage, td.DocumentType(), d.goType, reflect.TypeFor[T]())
		}
		return d, nil
	}
	return forType[T](r)
}
