package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:          HTTPConfig{Port: 8080},
		Elasticsearch: ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Elasticsearch.Addresses = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing elasticsearch addresses")
	}
}

func TestValidate_AuthConflict(t *testing.T) {
	cfg := validConfig()
	cfg.Elasticsearch.APIKey = "k"
	cfg.Elasticsearch.Username = "elastic"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for api_key together with username")
	}
}

func TestValidate_NegativeShards(t *testing.T) {
	cfg := validConfig()
	cfg.Elasticsearch.Replicas = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative replicas")
	}
}

func TestValidate_ReindexWithoutSource(t *testing.T) {
	cfg := validConfig()
	cfg.Source.ReindexOnStart = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for reindex_on_start without source")
	}
}

func TestValidate_Mappings(t *testing.T) {
	tests := []struct {
		name     string
		mappings []MappingConfig
		wantErr  string
	}{
		{
			name: "valid",
			mappings: []MappingConfig{
				{DocType: "Genre", Fields: []FieldConfig{{Name: "title", Type: "text", Boost: 5}}},
				{DocType: "Movie", Parent: "Genre", Fields: []FieldConfig{{Name: "year", Type: "integer"}}},
			},
		},
		{
			name:     "unknown type",
			mappings: []MappingConfig{{DocType: "A", Fields: []FieldConfig{{Name: "x", Type: "vector"}}}},
			wantErr:  `unknown field type "vector"`,
		},
		{
			name:     "duplicate",
			mappings: []MappingConfig{{DocType: "A"}, {DocType: "A"}},
			wantErr:  "declared twice",
		},
		{
			name:     "undeclared parent",
			mappings: []MappingConfig{{DocType: "Movie", Parent: "Genre"}},
			wantErr:  `parent "Genre" is not declared`,
		},
		{
			name:     "empty doc type",
			mappings: []MappingConfig{{}},
			wantErr:  "document type name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Mappings = tt.mappings
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMappingConfig_DocType(t *testing.T) {
	m := MappingConfig{
		DocType: "Movie",
		Parent:  "Genre",
		Fields: []FieldConfig{
			{Name: "title", Type: "Text", Boost: 5},
			{Name: "genre_title", Type: "keyword", Normalizer: "lowercase"},
		},
	}
	dt, err := m.DocType()
	if err != nil {
		t.Fatalf("DocType: %v", err)
	}
	if dt.Name != "Movie" || dt.Parent != "Genre" || len(dt.Fields) != 2 {
		t.Fatalf("dt = %+v", dt)
	}
	if dt.Fields[0].Type != "text" || dt.Fields[0].Boost != 5 || dt.Fields[1].Normalizer != "lowercase" {
		t.Errorf("fields = %+v", dt.Fields)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Elasticsearch.Index != "esmap" {
		t.Errorf("expected Index=esmap, got %q", cfg.Elasticsearch.Index)
	}
	if cfg.Elasticsearch.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Elasticsearch.ReadinessTimeout)
	}
	if cfg.Source.KeyPrefix != "esmap:" {
		t.Errorf("expected KeyPrefix='esmap:', got %q", cfg.Source.KeyPrefix)
	}
	if cfg.Source.MaxBatchSize != 500 {
		t.Errorf("expected MaxBatchSize=500, got %d", cfg.Source.MaxBatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:          HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Elasticsearch: ElasticsearchConfig{Index: "movies", ReadinessTimeout: 15},
		Source:        SourceConfig{KeyPrefix: "custom:", MaxBatchSize: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Elasticsearch.Index != "movies" {
		t.Errorf("expected Index=movies, got %q", cfg.Elasticsearch.Index)
	}
	if cfg.Source.KeyPrefix != "custom:" || cfg.Source.MaxBatchSize != 50 {
		t.Errorf("source = %+v", cfg.Source)
	}
}

func TestApplyDefaults_DropsBlankEntries(t *testing.T) {
	cfg := Config{
		Elasticsearch: ElasticsearchConfig{Addresses: []string{"", "http://es:9200"}},
		Source:        SourceConfig{Addrs: []string{" "}},
		Auth:          AuthConfig{APIKeys: []string{""}},
	}
	cfg.ApplyDefaults()

	if len(cfg.Elasticsearch.Addresses) != 1 || cfg.Source.Enabled() || len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("ESMAP_TEST_ES", "http://es.internal:9200")
	data := []byte(`
http:
  port: ${ESMAP_TEST_PORT:-9090}
elasticsearch:
  addresses: ["${ESMAP_TEST_ES}"]
  index: ${ESMAP_TEST_INDEX:-movies}
mappings:
  - doc_type: Genre
    fields:
      - { name: title, type: text, boost: 5 }
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Elasticsearch.Addresses[0] != "http://es.internal:9200" {
		t.Errorf("addresses = %v", cfg.Elasticsearch.Addresses)
	}
	if cfg.Elasticsearch.Index != "movies" {
		t.Errorf("index = %q", cfg.Elasticsearch.Index)
	}
	if len(cfg.Mappings) != 1 || cfg.Mappings[0].Fields[0].Boost != 5 {
		t.Errorf("mappings = %+v", cfg.Mappings)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if len(cfg.Mappings) != 2 || cfg.Mappings[1].Parent != "Genre" {
		t.Errorf("mappings = %+v", cfg.Mappings)
	}
}
