package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/esmap/internal/domain/mapping"
)

// Config holds the esmapd configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Source        SourceConfig        `yaml:"source"`
	Mappings      []MappingConfig     `yaml:"mappings"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ElasticsearchConfig holds search engine connection settings.
type ElasticsearchConfig struct {
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	Index            string   `yaml:"index"`
	Shards           int      `yaml:"shards"`
	Replicas         int      `yaml:"replicas"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexingDisabled bool     `yaml:"indexing_disabled"`
	RecreateIndex    bool     `yaml:"recreate_index"`
}

// SourceConfig holds the Redis record source settings. No addrs disables the source.
type SourceConfig struct {
	Addrs          []string `yaml:"addrs"`
	Password       string   `yaml:"password"`
	KeyPrefix      string   `yaml:"key_prefix"`
	MaxBatchSize   int      `yaml:"max_batch_size"`
	ReindexOnStart bool     `yaml:"reindex_on_start"`
}

// Enabled reports whether a record source is configured.
func (s SourceConfig) Enabled() bool { return len(s.Addrs) > 0 }

// MappingConfig declares one document type served by the daemon.
type MappingConfig struct {
	DocType string        `yaml:"doc_type"`
	Parent  string        `yaml:"parent"`
	Fields  []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one mapped field.
type FieldConfig struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Boost      float64 `yaml:"boost"`
	Analyzer   string  `yaml:"analyzer"`
	Normalizer string  `yaml:"normalizer"`
	NotIndexed bool    `yaml:"not_indexed"`
}

// DocType converts the declaration into a domain document type.
func (m MappingConfig) DocType() (mapping.DocType, error) {
	dt := mapping.DocType{Name: m.DocType, Parent: m.Parent}
	for _, f := range m.Fields {
		typ, err := mapping.ParseType(f.Type)
		if err != nil {
			return mapping.DocType{}, fmt.Errorf("mappings.%s.%s: %w", m.DocType, f.Name, err)
		}
		dt.Fields = append(dt.Fields, mapping.Field{
			Name:       f.Name,
			Type:       typ,
			Boost:      f.Boost,
			Analyzer:   f.Analyzer,
			Normalizer: f.Normalizer,
			NotIndexed: f.NotIndexed,
		})
	}
	if err := dt.Validate(); err != nil {
		return mapping.DocType{}, fmt.Errorf("mappings.%s: %w", m.DocType, err)
	}
	return dt, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// Blank list entries (unset ${VAR}) are dropped.
func (c *Config) ApplyDefaults() {
	c.Elasticsearch.Addresses = nonBlank(c.Elasticsearch.Addresses)
	c.Source.Addrs = nonBlank(c.Source.Addrs)
	c.Auth.APIKeys = nonBlank(c.Auth.APIKeys)

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "esmap"
	}
	if c.Elasticsearch.ReadinessTimeout <= 0 {
		c.Elasticsearch.ReadinessTimeout = 10
	}
	if c.Source.KeyPrefix == "" {
		c.Source.KeyPrefix = "esmap:"
	}
	if c.Source.MaxBatchSize <= 0 {
		c.Source.MaxBatchSize = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses is required")
	}
	if c.Elasticsearch.APIKey != "" && c.Elasticsearch.Username != "" {
		return fmt.Errorf("elasticsearch: set either api_key or username, not both")
	}
	if c.Elasticsearch.Shards < 0 || c.Elasticsearch.Replicas < 0 {
		return fmt.Errorf("elasticsearch: shards and replicas must not be negative")
	}
	if c.Source.ReindexOnStart && !c.Source.Enabled() {
		return fmt.Errorf("source.reindex_on_start requires source.addrs")
	}

	declared := make(map[string]bool, len(c.Mappings))
	for _, m := range c.Mappings {
		if _, err := m.DocType(); err != nil {
			return err
		}
		if declared[m.DocType] {
			return fmt.Errorf("mappings: document type %q declared twice", m.DocType)
		}
		declared[m.DocType] = true
	}
	for _, m := range c.Mappings {
		if m.Parent != "" && !declared[m.Parent] {
			return fmt.Errorf("mappings.%s: parent %q is not declared", m.DocType, m.Parent)
		}
	}
	return nil
}

func nonBlank(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
