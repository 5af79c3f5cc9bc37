package esmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// decodeHit turns a raw engine hit into a stored Document.
// fallbackType is used when the source carries no doc_type.
func decodeHit(hit db.Hit, fallbackType string) (Document, error) {
	fields := Fields{}
	if len(hit.Source) > 0 {
		dec := json.NewDecoder(bytes.NewReader(hit.Source))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return Document{}, fmt.Errorf("decode source of %s: %w", hit.ID, err)
		}
	}

	docType, _ := fields[mapping.DocTypeField].(string)
	if docType == "" {
		docType = fallbackType
	}
	if docType == "" {
		return Document{}, fmt.Errorf("hit %s has no document type", hit.ID)
	}

	id, ok := mapping.SplitDocumentID(docType, hit.ID)
	if !ok {
		id = hit.ID
	}

	doc := Document{DocType: docType, ID: id, ParentID: parentID(hit.Routing, fields[mapping.JoinField])}
	delete(fields, mapping.DocTypeField)
	delete(fields, mapping.JoinField)
	doc.Fields = fields
	return doc, nil
}

// parentID recovers the application parent id from routing, falling back to the join field.
func parentID(routing string, join any) string {
	parent := routing
	if parent == "" {
		if j, ok := join.(map[string]any); ok {
			parent, _ = j["parent"].(string)
		}
	}
	if parent == "" {
		return ""
	}
	// Parent engine ids are "<ParentType>:<id>"; the id itself may contain ':'.
	if _, id, ok := strings.Cut(parent, ":"); ok {
		return id
	}
	return parent
}

// hydrateHit builds the typed hit for a raw engine hit.
func hydrateHit[T any](reg *Registry, raw db.Hit, fallbackType string) (Hit[T], error) {
	doc, err := decodeHit(raw, fallbackType)
	if err != nil {
		return Hit[T]{}, err
	}
	d, err := reg.byDocType(doc.DocType)
	if err != nil {
		return Hit[T]{}, err
	}

	obj, err := d.hydrate(doc.Clone())
	if err != nil {
		return Hit[T]{}, fmt.Errorf("hydrate %s %s: %w", doc.DocType, doc.ID, err)
	}
	item, ok := obj.(T)
	if !ok {
		var zero T
		return Hit[T]{}, fmt.Errorf("%w: %s hydrates to %T, not %T", ErrUsage, doc.DocType, obj, zero)
	}

	if raw.Score != nil {
		setScore(&item, *raw.Score)
	}
	return Hit[T]{
		Item:     item,
		ID:       doc.ID,
		ParentID: doc.ParentID,
		DocType:  doc.DocType,
		Score:    raw.Score,
		Fields:   maps.Clone(doc.Fields),
	}, nil
}

// setScore hands the score to items implementing ScoreSetter, by value or by pointer.
func setScore[T any](item *T, score float64) {
	if s, ok := any(*item).(ScoreSetter); ok {
		s.SetScore(score)
		return
	}
	if s, ok := any(item).(ScoreSetter); ok {
		s.SetScore(score)
		return
	}

	// Untyped queries hold the object in an interface, so pointer receivers
	// need an addressable copy that is stored back.
	v := reflect.ValueOf(item).Elem()
	if v.Kind() != reflect.Interface || v.IsNil() {
		return
	}
	dyn := v.Elem()
	p := reflect.New(dyn.Type())
	p.Elem().Set(dyn)
	s, ok := p.Interface().(ScoreSetter)
	if !ok {
		return
	}
	s.SetScore(score)
	v.Set(p.Elem())
}
