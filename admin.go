package esmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/db"
)

// EnsureIndex creates the index with the mapping of every registered type.
// An existing index has its mapping updated instead, unless recreate is set,
// in which case it is dropped first.
func (c *Client) EnsureIndex(ctx context.Context, recreate bool) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opEnsureIndex, start, err, zap.String("index", c.index), zap.Bool("recreate", recreate))
	}(time.Now())

	props, err := c.registry.Properties()
	if err != nil {
		return err
	}

	if recreate {
		if err := c.store.DeleteIndex(ctx, c.index); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return storeErr(opEnsureIndex, err)
		}
	}

	def, err := db.NewIndex(c.index).
		Shards(c.shards).
		Replicas(c.replicas).
		Properties(props).
		Build()
	if err != nil {
		return fmt.Errorf("%s: %w", opEnsureIndex, err)
	}
	err = c.store.CreateIndex(ctx, def)
	switch {
	case err == nil:
		c.obs.logger.Info("index created", zap.Stringer("definition", def))
		return nil
	case errors.Is(err, db.ErrIndexExists):
		if err := c.store.PutMapping(ctx, c.index, props); err != nil {
			return storeErr(opEnsureIndex, err)
		}
		return nil
	default:
		return storeErr(opEnsureIndex, err)
	}
}

// EnsureMappings pushes the mapping of every registered type to the existing index.
func (c *Client) EnsureMappings(ctx context.Context) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opEnsureMappings, start, err, zap.String("index", c.index))
	}(time.Now())

	props, err := c.registry.Properties()
	if err != nil {
		return err
	}
	if err := c.store.PutMapping(ctx, c.index, props); err != nil {
		return storeErr(opEnsureMappings, err)
	}
	return nil
}

// DeleteIndex drops the index and every document in it.
func (c *Client) DeleteIndex(ctx context.Context) (err error) {
	defer func(start time.Time) {
		c.obs.observe(opDeleteIndex, start, err, zap.String("index", c.index))
	}(time.Now())

	if err := c.store.DeleteIndex(ctx, c.index); err != nil {
		return storeErr(opDeleteIndex, err)
	}
	return nil
}

// Mappings returns the index mapping as stored by the engine.
func (c *Client) Mappings(ctx context.Context) (m json.RawMessage, err error) {
	defer func(start time.Time) {
		c.obs.observe(opMappings, start, err, zap.String("index", c.index))
	}(time.Now())

	m, err = c.store.GetMapping(ctx, c.index)
	if err != nil {
		return nil, storeErr(opMappings, err)
	}
	return m, nil
}
