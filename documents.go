package esmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// DocOption adjusts a single-document call.
type DocOption func(*docOptions)

type docOptions struct {
	parentID string
	safe     bool
}

// WithParent names the parent id of a child document. Required to reach
// child documents by id, since they live on their parent's shard.
func WithParent(id string) DocOption {
	return func(o *docOptions) { o.parentID = id }
}

// Safe makes a delete of a missing document succeed silently.
func Safe() DocOption {
	return func(o *docOptions) { o.safe = true }
}

func applyDocOptions(opts []DocOption) docOptions {
	var o docOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// routing returns the routing value of a document of type dt with the given parent id.
func routing(dt mapping.DocType, parentID string) (string, error) {
	if dt.Parent == "" {
		return "", nil
	}
	if parentID == "" {
		return "", usageErr("%s documents are children of %s: parent id required", dt.Name, dt.Parent)
	}
	return mapping.DocumentID(dt.Parent, parentID), nil
}

// Get fetches the object of type T stored under id.
func Get[T any](ctx context.Context, c *Client, id string, opts ...DocOption) (T, error) {
	var zero T
	d, err := forType[T](c.registry)
	if err != nil {
		return zero, err
	}
	h, err := c.get(ctx, d, id, applyDocOptions(opts))
	if err != nil {
		return zero, err
	}
	item, ok := h.(T)
	if !ok {
		return zero, usageErr("%s hydrates to %T, not %T", d.docType.Name, h, zero)
	}
	return item, nil
}

// GetObject fetches the stored version of obj, located by its id and parent id.
func GetObject[T any](ctx context.Context, c *Client, obj T) (T, error) {
	var zero T
	d, err := forObject(c.registry, obj)
	if err != nil {
		return zero, err
	}
	o := docOptions{}
	if d.parentID != nil {
		o.parentID = d.parentID(obj)
	}
	h, err := c.get(ctx, d, d.id(obj), o)
	if err != nil {
		return zero, err
	}
	item, ok := h.(T)
	if !ok {
		return zero, usageErr("%s hydrates to %T, not %T", d.docType.Name, h, zero)
	}
	return item, nil
}

// GetDocument fetches a stored document of a registered type without hydrating it.
func (c *Client) GetDocument(ctx context.Context, docType, id string, opts ...DocOption) (Document, error) {
	d, err := c.registry.byDocType(docType)
	if err != nil {
		return Document{}, err
	}
	raw, err := c.fetch(ctx, d, id, applyDocOptions(opts))
	if err != nil {
		return Document{}, err
	}
	return decodeHit(*raw, docType)
}

func (c *Client) get(ctx context.Context, d *descriptor, id string, o docOptions) (any, error) {
	raw, err := c.fetch(ctx, d, id, o)
	if err != nil {
		return nil, err
	}
	doc, err := decodeHit(*raw, d.docType.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opGet, err)
	}
	obj, err := d.hydrate(doc)
	if err != nil {
		return nil, fmt.Errorf("hydrate %s %s: %w", doc.DocType, doc.ID, err)
	}
	return obj, nil
}

func (c *Client) fetch(ctx context.Context, d *descriptor, id string, o docOptions) (raw *db.Hit, err error) {
	defer func(start time.Time) {
		c.obs.observe(opGet, start, err, zap.String("doc_type", d.docType.Name), zap.String("id", id))
	}(time.Now())

	r, err := routing(d.docType, o.parentID)
	if err != nil {
		return nil, err
	}
	raw, err = c.store.Get(ctx, c.index, mapping.DocumentID(d.docType.Name, id), r)
	if err != nil {
		return nil, storeErr(opGet, err)
	}
	return raw, nil
}

// source renders the engine document for one object.
func (c *Client) source(d *descriptor, id, parentID string, fields map[string]any) (db.Document, error) {
	if id == "" {
		return db.Document{}, usageErr("%s: empty document id", d.docType.Name)
	}
	r, err := routing(d.docType, parentID)
	if err != nil {
		return db.Document{}, err
	}

	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		if k == mapping.DocTypeField || k == mapping.JoinField {
			return db.Document{}, fmt.Errorf("%w: %s: field %q is reserved", ErrInvalidMapping, d.docType.Name, k)
		}
		body[k] = v
	}
	body[mapping.DocTypeField] = d.docType.Name
	switch {
	case d.docType.Parent != "":
		body[mapping.JoinField] = map[string]any{"name": d.docType.Name, "parent": r}
	case c.registry.isParent(d.docType.Name):
		body[mapping.JoinField] = d.docType.Name
	}

	src, err := json.Marshal(body)
	if err != nil {
		return db.Document{}, fmt.Errorf("encode %s %s: %w", d.docType.Name, id, err)
	}
	return db.Document{ID: mapping.DocumentID(d.docType.Name, id), Routing: r, Source: src}, nil
}

func (c *Client) objectSource(d *descriptor, obj any) (db.Document, error) {
	var parentID string
	if d.parentID != nil {
		parentID = d.parentID(obj)
	}
	return c.source(d, d.id(obj), parentID, d.extract(obj))
}

// IndexObject stores obj, replacing any previous version.
// It does nothing while indexing is disabled.
func IndexObject[T any](ctx context.Context, c *Client, obj T) error {
	if c.IndexingDisabled() {
		return nil
	}
	d, err := forObject(c.registry, obj)
	if err != nil {
		return err
	}
	doc, err := c.objectSource(d, obj)
	if err != nil {
		return err
	}
	return c.indexOne(ctx, d.docType.Name, doc)
}

// IndexObjects stores objs in one bulk request.
// It does nothing while indexing is disabled.
func IndexObjects[T any](ctx context.Context, c *Client, objs []T) error {
	if c.IndexingDisabled() || len(objs) == 0 {
		return nil
	}
	docs := make([]db.Document, 0, len(objs))
	for i, obj := range objs {
		d, err := forObject(c.registry, obj)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		doc, err := c.objectSource(d, obj)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return c.bulk(ctx, docs)
}

// IndexDocument stores a generic document of a registered type.
// It does nothing while indexing is disabled.
func (c *Client) IndexDocument(ctx context.Context, doc Document) error {
	if c.IndexingDisabled() {
		return nil
	}
	d, err := c.registry.byDocType(doc.DocType)
	if err != nil {
		return err
	}
	src, err := c.source(d, doc.ID, doc.ParentID, doc.Fields)
	if err != nil {
		return err
	}
	return c.indexOne(ctx, doc.DocType, src)
}

// IndexDocuments stores generic documents in one bulk request.
// It does nothing while indexing is disabled.
func (c *Client) IndexDocuments(ctx context.Context, docs []Document) error {
	if c.IndexingDisabled() || len(docs) == 0 {
		return nil
	}
	out := make([]db.Document, 0, len(docs))
	for i, doc := range docs {
		d, err := c.registry.byDocType(doc.DocType)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		src, err := c.source(d, doc.ID, doc.ParentID, doc.Fields)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, src)
	}
	return c.bulk(ctx, out)
}

func (c *Client) indexOne(ctx context.Context, docType string, doc db.Document) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opIndex, start, err, zap.String("doc_type", docType), zap.String("id", doc.ID))
	}(time.Now())
	if err := c.store.Index(ctx, c.index, doc); err != nil {
		return storeErr(opIndex, err)
	}
	return nil
}

func (c *Client) bulk(ctx context.Context, docs []db.Document) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opBulkIndex, start, err, zap.Int("documents", len(docs)))
	}(time.Now())
	if err := c.store.Bulk(ctx, c.index, docs); err != nil {
		return storeErr(opBulkIndex, err)
	}
	return nil
}

// DeleteObject removes the stored version of obj. A missing document fails
// with ErrNotFound unless Safe is given. It does nothing while indexing is disabled.
func DeleteObject[T any](ctx context.Context, c *Client, obj T, opts ...DocOption) error {
	if c.IndexingDisabled() {
		return nil
	}
	d, err := forObject(c.registry, obj)
	if err != nil {
		return err
	}
	o := applyDocOptions(opts)
	if d.parentID != nil {
		o.parentID = d.parentID(obj)
	}
	return c.delete(ctx, d, d.id(obj), o)
}

// DeleteDocument removes a document by type and id. A missing document fails
// with ErrNotFound unless Safe is given. It does nothing while indexing is disabled.
func (c *Client) DeleteDocument(ctx context.Context, docType, id string, opts ...DocOption) error {
	if c.IndexingDisabled() {
		return nil
	}
	d, err := c.registry.byDocType(docType)
	if err != nil {
		return err
	}
	return c.delete(ctx, d, id, applyDocOptions(opts))
}

func (c *Client) delete(ctx context.Context, d *descriptor, id string, o docOptions) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opDelete, start, err, zap.String("doc_type", d.docType.Name), zap.String("id", id))
	}(time.Now())

	r, err := routing(d.docType, o.parentID)
	if err != nil {
		return err
	}
	err = c.store.Delete(ctx, c.index, mapping.DocumentID(d.docType.Name, id), r)
	if err == nil {
		return nil
	}
	if o.safe && errors.Is(err, db.ErrDocumentNotFound) {
		return nil
	}
	return storeErr(opDelete, err)
}
