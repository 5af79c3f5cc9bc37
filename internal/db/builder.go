package db

import (
	"slices"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Shards sets the primary shard count (0 keeps the engine default).
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the replica count (0 keeps the engine default).
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Properties sets the mapping properties created with the index.
func (b *IndexBuilder) Properties(props map[string]any) *IndexBuilder {
	b.def.Properties = props
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a debug representation resembling the create-index call.
func (idx *IndexDefinition) String() string {
	parts := []string{"PUT", "/" + idx.Name}
	if idx.Shards > 0 || idx.Replicas > 0 {
		parts = append(parts, "settings")
	}
	if len(idx.Properties) > 0 {
		names := make([]string, 0, len(idx.Properties))
		for k := range idx.Properties {
			names = append(names, k)
		}
		slices.Sort(names)
		parts = append(parts, "properties", strings.Join(names, ","))
	}
	return strings.Join(parts, " ")
}
