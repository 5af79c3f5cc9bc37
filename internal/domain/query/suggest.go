package query

import "fmt"

// Suggester defaults.
const (
	DefaultSuggestSort = "score"
	DefaultSuggestMode = "missing"
)

// Suggester is a named term suggester declaration.
type Suggester struct {
	Name  string
	Field string
	Text  string
	Sort  string // score | frequency
	Mode  string // missing | popular | always
}

// Validate checks the declaration.
func (s Suggester) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suggester name is required")
	}
	if s.Field == "" {
		return fmt.Errorf("suggester %q: field is required", s.Name)
	}
	switch s.Sort {
	case "", "score", "frequency":
	default:
		return fmt.Errorf("suggester %q: unknown sort %q", s.Name, s.Sort)
	}
	switch s.Mode {
	case "", "missing", "popular", "always":
	default:
		return fmt.Errorf("suggester %q: unknown suggest mode %q", s.Name, s.Mode)
	}
	return nil
}

// Source renders the suggester body.
func (s Suggester) Source() map[string]any {
	sort := s.Sort
	if sort == "" {
		sort = DefaultSuggestSort
	}
	mode := s.Mode
	if mode == "" {
		mode = DefaultSuggestMode
	}
	return map[string]any{
		"text": s.Text,
		"term": map[string]any{
			"field":        s.Field,
			"sort":         sort,
			"suggest_mode": mode,
		},
	}
}
