// Package elastic implements db.Store on top of the official Elasticsearch client.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmap/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	// Transport overrides the HTTP round tripper (tests, custom TLS).
	Transport http.RoundTripper
}

// Store implements db.Store via go-elasticsearch.
type Store struct {
	es *elasticsearch.Client
}

// NewStore creates an Elasticsearch store. No request is made until first use.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{es: es}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Info(s.es.Info.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: classify(res)}
	}
	return nil
}

// Close releases idle connections held by the transport.
func (s *Store) Close() {
	if t, ok := s.es.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// errorBody is the engine's error envelope.
type errorBody struct {
	Error *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// classify maps a non-success response onto storage sentinels.
func classify(res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	if body.Error == nil {
		if res.StatusCode == http.StatusNotFound {
			return db.ErrDocumentNotFound
		}
		return &db.StatusError{Status: res.StatusCode, Reason: string(bytes.TrimSpace(raw))}
	}

	switch body.Error.Type {
	case "index_not_found_exception":
		return fmt.Errorf("%w: %s", db.ErrIndexNotFound, body.Error.Reason)
	case "resource_already_exists_exception":
		return fmt.Errorf("%w: %s", db.ErrIndexExists, body.Error.Reason)
	}
	return &db.StatusError{Status: res.StatusCode, Type: body.Error.Type, Reason: body.Error.Reason}
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}

func decode(res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encode(v any) (*bytes.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}
