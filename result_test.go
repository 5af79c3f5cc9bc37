package esmap

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/esmap/internal/db"
)

func movieHit(t *testing.T, m Movie, score *float64) db.Hit {
	t.Helper()
	src, err := json.Marshal(map[string]any{
		"doc_type":    "Movie",
		"doc_join":    map[string]any{"name": "Movie", "parent": "Genre:" + m.GenreID},
		"title":       m.Title,
		"director":    m.Director,
		"year":        m.Year,
		"rating":      m.Rating,
		"genre_title": m.Genre,
	})
	if err != nil {
		t.Fatal(err)
	}
	return db.Hit{
		Index:   "esmap",
		ID:      "Movie:" + m.ID,
		Score:   score,
		Routing: "Genre:" + m.GenreID,
		Source:  src,
	}
}

func TestExecute_HydratesHits(t *testing.T) {
	c, store := newTestClient(t)
	movies := testMovies()
	store.searchResult = &db.SearchResult{
		Total: 8,
		Hits:  []db.Hit{movieHit(t, movies[1], Bound(2.5)), movieHit(t, movies[0], Bound(1.5))},
	}

	res, err := Search[Movie](c, KeywordQuery("hitchcock")).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Total() != 8 || res.Len() != 2 {
		t.Fatalf("total/len = %d/%d, want 8/2", res.Total(), res.Len())
	}

	hits, err := res.Hits()
	if err != nil {
		t.Fatalf("Hits: %v", err)
	}
	h := hits[0]
	if h.Item.Title != "Vertigo" || h.Item.Year != 1958 || h.Item.Rating != 8.5 {
		t.Errorf("item = %+v", h.Item)
	}
	if h.ID != movies[1].ID || h.DocType != "Movie" {
		t.Errorf("identity = %s/%s", h.DocType, h.ID)
	}
	if h.ParentID != movies[1].GenreID || h.Item.GenreID != movies[1].GenreID {
		t.Errorf("parent = %q, item parent = %q, want %q", h.ParentID, h.Item.GenreID, movies[1].GenreID)
	}
	if h.Score == nil || *h.Score != 2.5 {
		t.Errorf("score = %v, want 2.5", h.Score)
	}
	if h.Item.Score != 2.5 {
		t.Errorf("SetScore not called: %v", h.Item.Score)
	}
	if h.Fields.Has("doc_type") || h.Fields.Has("doc_join") {
		t.Errorf("internal fields leaked: %v", h.Fields)
	}
}

func TestExecute_SortedHitsHaveNoScore(t *testing.T) {
	c, store := newTestClient(t)
	store.searchResult = &db.SearchResult{Total: 1, Hits: []db.Hit{movieHit(t, testMovies()[4], nil)}}

	res, err := Search[Movie](c).OrderBy("year", true).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	items, err := res.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if items[0].Title != "Annie Hall" {
		t.Errorf("title = %q", items[0].Title)
	}
	for h := range res.All() {
		if h.Score != nil {
			t.Errorf("score = %v, want nil", *h.Score)
		}
	}
}

func TestResult_AllIsRestartable(t *testing.T) {
	c, store := newTestClient(t)
	var hits []db.Hit
	for _, m := range testMovies()[:3] {
		hits = append(hits, movieHit(t, m, Bound(1)))
	}
	store.searchResult = &db.SearchResult{Total: 3, Hits: hits}

	res, err := Search[Movie](c).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for round := range 2 {
		n := 0
		for _, err := range res.All() {
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			n++
		}
		if n != 3 {
			t.Errorf("round %d: %d hits, want 3", round, n)
		}
	}

	n := 0
	for range res.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early stop yielded %d", n)
	}
	if len(store.searchBodies) != 1 {
		t.Errorf("searches = %d, want 1", len(store.searchBodies))
	}
}

func TestResult_HydrateErrorPerHit(t *testing.T) {
	reg := NewRegistry()
	MustRegister(reg, Mapping[Genre]{
		DocType: "Genre",
		Fields:  []Field{{Name: "title", Type: Text}},
		ID:      func(g Genre) string { return g.ID },
		Extract: func(g Genre) map[string]any { return map[string]any{"title": g.Title} },
		Hydrate: func(d Document) (Genre, error) {
			if d.Fields.String("title") == "" {
				return Genre{}, errors.New("untitled")
			}
			return Genre{ID: d.ID, Title: d.Fields.String("title")}, nil
		},
	})
	store := newFakeStore()
	c, err := newClient(store, &clientConfig{registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	store.searchResult = &db.SearchResult{Total: 2, Hits: []db.Hit{
		{ID: "Genre:1", Source: json.RawMessage(`{"doc_type":"Genre"}`)},
		{ID: "Genre:2", Source: json.RawMessage(`{"doc_type":"Genre","title":"Drama"}`)},
	}}

	res, err := Search[Genre](c).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var errs, ok int
	for h, err := range res.All() {
		if err != nil {
			errs++
			continue
		}
		if h.Item.Title != "Drama" {
			t.Errorf("title = %q", h.Item.Title)
		}
		ok++
	}
	if errs != 1 || ok != 1 {
		t.Errorf("errs/ok = %d/%d, want 1/1", errs, ok)
	}
	if _, err := res.Items(); err == nil {
		t.Error("Items: expected error")
	}
}

func TestClientSearch_HydratesMixedTypes(t *testing.T) {
	c, store := newTestClient(t)
	movie := testMovies()[7]
	store.searchResult = &db.SearchResult{Total: 2, Hits: []db.Hit{
		{ID: "Genre:" + movie.GenreID, Source: json.RawMessage(`{"doc_type":"Genre","doc_join":"Genre","title":"Drama"}`)},
		movieHit(t, movie, Bound(2.5)),
	}}

	res, err := c.Search(KeywordQuery("drama")).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	items, err := res.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if g, ok := items[0].(Genre); !ok || g.Title != "Drama" {
		t.Errorf("items[0] = %#v, want Genre Drama", items[0])
	}
	// Movie hydrates by value and sets its score through a pointer receiver.
	m, ok := items[1].(Movie)
	if !ok || m.Title != "Metropolis" {
		t.Fatalf("items[1] = %#v, want Movie Metropolis", items[1])
	}
	if m.Score != 2.5 {
		t.Errorf("item score = %v, want 2.5", m.Score)
	}
}

func TestResult_PayloadMapsAreCopies(t *testing.T) {
	c, store := newTestClient(t)
	store.searchResult = &db.SearchResult{
		Aggregations: map[string]json.RawMessage{
			"genres": json.RawMessage(`{"buckets":[{"key":"drama","doc_count":1}]}`),
			"years":  json.RawMessage(`{"buckets":[]}`),
		},
		Suggest: map[string]json.RawMessage{"spell": json.RawMessage(`[]`)},
	}
	res, err := Search[Movie](c).
		AddTermFacet("genres", "genre_title", 3).
		AddTermAggregate("years", "year").
		AddTermSuggester("spell", "title", "drma").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	delete(res.Facets(), "genres")
	res.Aggregations()["extra"] = json.RawMessage(`{}`)
	clear(res.Suggests())

	if _, ok := res.Facets()["genres"]; !ok {
		t.Error("facet removed through the returned map")
	}
	if len(res.Aggregations()) != 1 {
		t.Errorf("aggregations = %v, want only years", res.Aggregations())
	}
	if len(res.Suggests()) != 1 {
		t.Error("suggesters cleared through the returned map")
	}
}

func TestResult_FallbackDocType(t *testing.T) {
	c, store := newTestClient(t)
	store.searchResult = &db.SearchResult{Total: 1, Hits: []db.Hit{
		{ID: "Genre:9", Source: json.RawMessage(`{"title":"Drama"}`)},
	}}
	res, err := Search[Genre](c).Execute(context.Background(), WithFields("title"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	hits, err := res.Hits()
	if err != nil {
		t.Fatalf("Hits: %v", err)
	}
	if hits[0].ID != "9" || hits[0].Item.Title != "Drama" {
		t.Errorf("hit = %+v", hits[0])
	}
}

func TestResult_FacetsAggregationsSplit(t *testing.T) {
	c, store := newTestClient(t)
	store.searchResult = &db.SearchResult{
		Total: 8,
		Aggregations: map[string]json.RawMessage{
			"decades": json.RawMessage(`{"buckets":[
				{"key":"*-1950.0","to":1950,"doc_count":3},
				{"key":"1950.0-1970.0","from":1950,"to":1970,"doc_count":3},
				{"key":"1970.0-*","from":1970,"doc_count":2}]}`),
			"genres": json.RawMessage(`{"buckets":[
				{"key":"mystery","doc_count":3},
				{"key":"action","doc_count":2}]}`),
			"years": json.RawMessage(`{"buckets":[{"key":1955,"doc_count":1}]}`),
		},
		Suggest: map[string]json.RawMessage{
			"spell": json.RawMessage(`[{"text":"vrtigo","offset":0,"length":6,
				"options":[{"text":"vertigo","score":0.83,"freq":1}]}]`),
		},
	}

	res, err := Search[Movie](c).
		AddRangeFacet("decades", "year", Range{To: Bound(1950)}, Range{From: Bound(1950), To: Bound(1970)}, Range{From: Bound(1970)}).
		AddTermFacet("genres", "genre_title", 3).
		AddTermAggregate("years", "year").
		AddTermSuggester("spell", "title", "vrtigo").
		Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(res.Facets()) != 2 || len(res.Aggregations()) != 1 {
		t.Fatalf("facets/aggs = %d/%d, want 2/1", len(res.Facets()), len(res.Aggregations()))
	}
	if _, ok := res.Aggregations()["genres"]; ok {
		t.Error("facet reported as aggregation")
	}

	ranges, err := res.RangeFacet("decades")
	if err != nil {
		t.Fatalf("RangeFacet: %v", err)
	}
	if len(ranges) != 3 || ranges[1].DocCount != 3 || ranges[0].From != nil || *ranges[2].From != 1970 {
		t.Errorf("ranges = %+v", ranges)
	}

	terms, err := res.TermFacet("genres")
	if err != nil {
		t.Fatalf("TermFacet: %v", err)
	}
	if terms[0].Key != "mystery" || terms[0].DocCount != 3 {
		t.Errorf("top term = %+v", terms[0])
	}

	years, err := res.TermAggregate("years")
	if err != nil {
		t.Fatalf("TermAggregate: %v", err)
	}
	if years[0].Key != json.Number("1955") {
		t.Errorf("year key = %#v, want json.Number 1955", years[0].Key)
	}

	sugg, err := res.TermSuggestions("spell")
	if err != nil {
		t.Fatalf("TermSuggestions: %v", err)
	}
	if sugg[0].Options[0].Text != "vertigo" {
		t.Errorf("suggestion = %+v", sugg[0])
	}

	if _, err := res.TermFacet("years"); !errors.Is(err, ErrUsage) {
		t.Errorf("aggregation read as facet: err = %v, want ErrUsage", err)
	}
	if _, err := res.TermSuggestions("nope"); !errors.Is(err, ErrUsage) {
		t.Errorf("missing suggester err = %v, want ErrUsage", err)
	}
}
