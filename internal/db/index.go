package db

import (
	"errors"
	"strings"
)

// IndexDefinition is a complete index definition used by index creation.
type IndexDefinition struct {
	Name       string
	Shards     int
	Replicas   int
	Properties map[string]any
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if idx.Shards < 0 || idx.Replicas < 0 {
		return errors.New("shards and replicas must not be negative")
	}
	return nil
}

// Body renders the index creation request body.
func (idx *IndexDefinition) Body() map[string]any {
	body := map[string]any{}
	settings := map[string]any{}
	if idx.Shards > 0 {
		settings["number_of_shards"] = idx.Shards
	}
	if idx.Replicas > 0 {
		settings["number_of_replicas"] = idx.Replicas
	}
	if len(settings) > 0 {
		body["settings"] = settings
	}
	if len(idx.Properties) > 0 {
		body["mappings"] = map[string]any{"properties": idx.Properties}
	}
	return body
}

// IsValidIndexName reports whether s is an acceptable engine index name:
// lowercase, no path or wildcard characters, not starting with -, _ or +.
func IsValidIndexName(s string) bool {
	if s == "" || s == "." || s == ".." || len(s) > 255 {
		return false
	}
	if strings.ContainsAny(s[:1], "-_+") {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-' || r == '.' || r == '+'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
