package esmap

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultIndex is the index used when WithIndex is not given.
const DefaultIndex = "esmap"

const defaultReadinessTimeout = 10 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addresses []string
	username  string
	password  string
	apiKey    string
	transport http.RoundTripper

	index            string
	shards           int
	replicas         int
	registry         *Registry
	indexingDisabled bool
	readinessTimeout time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithAddresses sets the engine node URLs.
func WithAddresses(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addresses = addrs
	})
}

// WithBasicAuth sets HTTP basic credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAPIKey sets a base64 encoded API key.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithTransport overrides the HTTP round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithIndex sets the index every document type lives in. Default: "esmap".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithIndexSettings sets the shard and replica counts EnsureIndex creates
// the index with. Zero keeps the engine default.
func WithIndexSettings(shards, replicas int) Option {
	return optionFunc(func(c *clientConfig) {
		c.shards = shards
		c.replicas = replicas
	})
}

// WithRegistry sets the mapping registry. Default: a new empty registry.
func WithRegistry(r *Registry) Option {
	return optionFunc(func(c *clientConfig) {
		c.registry = r
	})
}

// WithIndexingDisabled starts the client with indexing turned off.
func WithIndexingDisabled() Option {
	return optionFunc(func(c *clientConfig) {
		c.indexingDisabled = true
	})
}

// WithReadinessTimeout bounds the wait for the engine in New.
// Zero skips the wait. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
