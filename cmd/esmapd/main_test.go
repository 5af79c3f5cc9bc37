package main

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap"
	"github.com/kailas-cloud/esmap/internal/config"
)

func TestBuildRegistry(t *testing.T) {
	reg, err := buildRegistry([]config.MappingConfig{
		{DocType: "Genre", Fields: []config.FieldConfig{{Name: "title", Type: "text", Boost: 5}}},
		{DocType: "Movie", Parent: "Genre", Fields: []config.FieldConfig{{Name: "year", Type: "integer"}}},
	})
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	movie, ok := reg.Lookup("Movie")
	if !ok {
		t.Fatal("Movie not registered")
	}
	if movie.Parent != "Genre" || len(movie.Fields) != 1 || movie.Fields[0].Type != esmap.Integer {
		t.Errorf("Movie: %+v", movie)
	}
	if len(reg.DocTypes()) != 2 {
		t.Errorf("types: %d", len(reg.DocTypes()))
	}
}

func TestBuildRegistry_Errors(t *testing.T) {
	_, err := buildRegistry([]config.MappingConfig{
		{DocType: "Genre", Fields: []config.FieldConfig{{Name: "title", Type: "vector"}}},
	})
	if err == nil {
		t.Error("unknown field type accepted")
	}

	_, err = buildRegistry([]config.MappingConfig{{DocType: "Genre"}, {DocType: "Genre"}})
	if !errors.Is(err, esmap.ErrInvalidMapping) {
		t.Errorf("duplicate: got %v, want ErrInvalidMapping", err)
	}
}

func TestClientOptions(t *testing.T) {
	base := config.Config{Elasticsearch: config.ElasticsearchConfig{
		Addresses: []string{"http://es:9200"},
		Index:     "esmap",
	}}
	n := len(clientOptions(base, esmap.NewRegistry(), zap.NewNop()))

	full := base
	full.Elasticsearch.Username = "elastic"
	full.Elasticsearch.APIKey = "key"
	full.Elasticsearch.IndexingDisabled = true
	if got := len(clientOptions(full, esmap.NewRegistry(), zap.NewNop())); got != n+3 {
		t.Errorf("options: got %d, want %d", got, n+3)
	}
}
