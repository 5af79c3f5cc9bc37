package esmap

import (
	"crypto/sha1" //nolint:gosec // test ids only
	"encoding/hex"
	"testing"
)

type Genre struct {
	ID    string
	Title string
}

type Movie struct {
	ID       string
	GenreID  string
	Title    string
	Director string
	Year     int64
	Rating   float64
	Genre    string
	Score    float64
}

func (m *Movie) SetScore(s float64) { m.Score = s }

func titleID(title string) string {
	sum := sha1.Sum([]byte(title)) //nolint:gosec // test ids only
	return hex.EncodeToString(sum[:])
}

var genreMapping = Mapping[Genre]{
	DocType: "Genre",
	Fields:  []Field{{Name: "title", Type: Text, Boost: 5}},
	ID:      func(g Genre) string { return g.ID },
	Extract: func(g Genre) map[string]any { return map[string]any{"title": g.Title} },
	Hydrate: func(d Document) (Genre, error) {
		return Genre{ID: d.ID, Title: d.Fields.String("title")}, nil
	},
}

var movieMapping = Mapping[Movie]{
	DocType: "Movie",
	Parent:  "Genre",
	Fields: []Field{
		{Name: "title", Type: Text, Boost: 5},
		{Name: "director", Type: Text},
		{Name: "year", Type: Integer},
		{Name: "rating", Type: Float},
		{Name: "genre_title", Type: Keyword, Normalizer: "lowercase"},
	},
	ID:       func(m Movie) string { return m.ID },
	ParentID: func(m Movie) string { return m.GenreID },
	Extract: func(m Movie) map[string]any {
		return map[string]any{
			"title":       m.Title,
			"director":    m.Director,
			"year":        m.Year,
			"rating":      m.Rating,
			"genre_title": m.Genre,
		}
	},
	Hydrate: func(d Document) (Movie, error) {
		return Movie{
			ID:       d.ID,
			GenreID:  d.ParentID,
			Title:    d.Fields.String("title"),
			Director: d.Fields.String("director"),
			Year:     d.Fields.Int64("year"),
			Rating:   d.Fields.Float64("rating"),
			Genre:    d.Fields.String("genre_title"),
		}, nil
	},
}

func testGenres() []Genre {
	var out []Genre
	for _, t := range []string{"Mystery", "Comedy", "Action", "Drama"} {
		out = append(out, Genre{ID: titleID(t), Title: t})
	}
	return out
}

func testMovies() []Movie {
	rows := []struct {
		title, director string
		year            int64
		rating          float64
		genre           string
	}{
		{"To Catch a Thief", "Alfred Hitchcock", 1955, 7.5, "Mystery"},
		{"Vertigo", "Alfred Hitchcock", 1958, 8.5, "Mystery"},
		{"North by Northwest", "Alfred Hitchcock", 1959, 8.5, "Mystery"},
		{"Destination Tokyo", "Delmer Daves", 1943, 7.1, "Action"},
		{"Annie Hall", "Woody Allen", 1977, 8.2, "Comedy"},
		{"Sleeper", "Woody Allen", 1973, 7.3, "Comedy"},
		{"Captain Blood", "Michael Curtiz", 1935, 7.8, "Action"},
		{"Metropolis", "Fritz Lang", 1927, 8.4, "Drama"},
	}
	out := make([]Movie, 0, len(rows))
	for _, r := range rows {
		out = append(out, Movie{
			ID:       titleID(r.title),
			GenreID:  titleID(r.genre),
			Title:    r.title,
			Director: r.director,
			Year:     r.year,
			Rating:   r.rating,
			Genre:    r.genre,
		})
	}
	return out
}

func newMovieRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	if err := Register(reg, genreMapping); err != nil {
		t.Fatalf("register genre: %v", err)
	}
	if err := Register(reg, movieMapping); err != nil {
		t.Fatalf("register movie: %v", err)
	}
	return reg
}

// newTestClient returns a client over an in-memory store.
func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	cfg := &clientConfig{registry: newMovieRegistry(t)}
	for _, o := range opts {
		o.apply(cfg)
	}
	c, err := newClient(store, cfg)
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return c, store
}
