// Package esmap maps Go types onto documents of an Elasticsearch index and
// queries them back through a typed, chainable query builder.
//
// Every registered document type lives in a single index. A document carries
// its type in the doc_type keyword field; parent/child types are linked by a
// join field and children are routed to their parent's shard.
package esmap

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/db/elastic"
)

// Client is the esmap entry point. It owns the engine connection, the index
// name, the mapping registry and the indexing-disabled flag.
// Safe for concurrent use.
type Client struct {
	store    db.Store
	index    string
	shards   int
	replicas int
	registry *Registry
	obs      *observer

	indexingDisabled atomic.Bool
}

// New creates a Client and waits for the engine to respond.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addresses) == 0 {
		return nil, errors.New("esmap: engine address required (use WithAddresses)")
	}

	store, err := elastic.NewStore(elastic.Config{
		Addresses: cfg.addresses,
		Username:  cfg.username,
		Password:  cfg.password,
		APIKey:    cfg.apiKey,
		Transport: cfg.transport,
	})
	if err != nil {
		return nil, fmt.Errorf("esmap: create store: %w", err)
	}

	if cfg.readinessTimeout > 0 {
		if err := store.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("esmap: engine not ready: %w", err)
		}
	}

	c, err := newClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func newClient(store db.Store, cfg *clientConfig) (*Client, error) {
	index := cfg.index
	if index == "" {
		index = DefaultIndex
	}
	if !db.IsValidIndexName(index) {
		return nil, fmt.Errorf("esmap: invalid index name %q", index)
	}
	registry := cfg.registry
	if registry == nil {
		registry = NewRegistry()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:    store,
		index:    index,
		shards:   cfg.shards,
		replicas: cfg.replicas,
		registry: registry,
		obs:      obs,
	}
	c.indexingDisabled.Store(cfg.indexingDisabled)
	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Index returns the index name.
func (c *Client) Index() string { return c.index }

// Registry returns the mapping registry.
func (c *Client) Registry() *Registry { return c.registry }

// SetIndexingDisabled turns indexing on or off for every later index and
// delete call made through this client.
func (c *Client) SetIndexingDisabled(disabled bool) {
	c.indexingDisabled.Store(disabled)
	c.obs.logger.Info("indexing toggled", zap.Bool("disabled", disabled))
}

// IndexingDisabled reports whether index and delete calls are no-ops.
func (c *Client) IndexingDisabled() bool {
	return c.indexingDisabled.Load()
}

// Refresh makes all writes so far visible to search.
func (c *Client) Refresh(ctx context.Context) (err error) {
	defer func(start time.Time) { c.obs.observe(opRefresh, start, err) }(time.Now())
	if err := c.store.Refresh(ctx, c.index); err != nil {
		return storeErr(opRefresh, err)
	}
	return nil
}
