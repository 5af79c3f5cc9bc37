package db

import "encoding/json"

// SearchResult is the decoded output of a search request.
type SearchResult struct {
	Total        int64
	Hits         []Hit
	Aggregations map[string]json.RawMessage
	Suggest      map[string]json.RawMessage
}

// Hit is a single document hit.
type Hit struct {
	Index   string
	ID      string
	Score   *float64 // nil when the engine did not score (explicit sort)
	Routing string
	Source  json.RawMessage
}
