package esmap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestNew_NoAddress(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_InvalidIndex(t *testing.T) {
	_, err := New(WithAddresses("http://127.0.0.1:1"), WithIndex("Bad Name"), WithReadinessTimeout(0))
	if err == nil {
		t.Fatal("expected error for invalid index name")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	reg := NewRegistry()
	for _, o := range []Option{
		WithAddresses("http://a:9200", "http://b:9200"),
		WithBasicAuth("elastic", "secret"),
		WithAPIKey("key"),
		WithIndex("movies"),
		WithRegistry(reg),
		WithIndexingDisabled(),
		WithReadinessTimeout(time.Second),
	} {
		o.apply(cfg)
	}
	if len(cfg.addresses) != 2 || cfg.username != "elastic" || cfg.password != "secret" || cfg.apiKey != "key" {
		t.Errorf("connection options = %+v", cfg)
	}
	if cfg.index != "movies" || cfg.registry != reg || !cfg.indexingDisabled || cfg.readinessTimeout != time.Second {
		t.Errorf("client options = %+v", cfg)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := newClient(newFakeStore(), &clientConfig{})
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	if c.Index() != DefaultIndex {
		t.Errorf("index = %q, want %q", c.Index(), DefaultIndex)
	}
	if c.Registry() == nil || len(c.Registry().DocTypes()) != 0 {
		t.Error("expected an empty registry")
	}
	if c.IndexingDisabled() {
		t.Error("indexing disabled by default")
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	c.Close()
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, store := newTestClient(t, WithPrometheus(reg))
	ctx := context.Background()

	if _, err := Search[Movie](c).Execute(ctx); err != nil {
		t.Fatal(err)
	}
	_, _ = Get[Genre](ctx, c, "missing")
	store.errs["_count"] = errors.New("boom")
	_, _ = Search[Movie](c).Count(ctx)

	m, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues(opSearch, "ok")); got != 1 {
		t.Errorf("search ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues(opGet, "not_found")); got != 1 {
		t.Errorf("get not_found = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues(opCount, "error")); got != 1 {
		t.Errorf("count error = %v, want 1", got)
	}
}

func TestObserver_Logging(t *testing.T) {
	core, logs := zapobserver.New(zap.DebugLevel)
	c, store := newTestClient(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	store.errs["_search"] = errors.New("boom")
	_, _ = Search[Movie](c).Execute(ctx)
	_, _ = Get[Genre](ctx, c, "missing")
	c.SetIndexingDisabled(true)

	if n := logs.FilterMessage("operation failed").Len(); n != 1 {
		t.Errorf("failed logs = %d, want 1", n)
	}
	rejected := logs.FilterMessage("operation rejected").All()
	if len(rejected) != 1 || rejected[0].ContextMap()["op"] != opGet {
		t.Errorf("rejected logs = %+v", rejected)
	}
	toggled := logs.FilterMessage("indexing toggled").All()
	if len(toggled) != 1 || !strings.Contains(toggled[0].Level.String(), "info") {
		t.Errorf("toggle logs = %+v", toggled)
	}
}
