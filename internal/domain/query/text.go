package query

import "encoding/json"

// TextKind discriminates the free-text part of a query.
type TextKind int

// Text kinds.
const (
	TextNone TextKind = iota
	TextKeyword
	TextRaw
)

// Text is the free-text part of a query: absent, a keyword string, or a raw engine query.
type Text struct {
	kind    TextKind
	keyword string
	raw     json.RawMessage
}

// Keyword creates a keyword text query. An empty string means no text query.
func Keyword(s string) Text {
	if s == "" {
		return Text{}
	}
	return Text{kind: TextKeyword, keyword: s}
}

// Raw wraps an engine-native query that is sent verbatim.
func Raw(q json.RawMessage) Text {
	if len(q) == 0 {
		return Text{}
	}
	return Text{kind: TextRaw, raw: q}
}

// Kind returns the text kind.
func (t Text) Kind() TextKind { return t.kind }

// Keyword returns the keyword string (empty unless Kind is TextKeyword).
func (t Text) Keyword() string { return t.keyword }

// Source renders the text query. fields are the boosted fields searched by keyword queries;
// when empty the engine searches its default fields.
func (t Text) Source(fields []string) any {
	switch t.kind {
	case TextKeyword:
		q := map[string]any{
			"query":            t.keyword,
			"default_operator": "and",
		}
		if len(fields) > 0 {
			q["fields"] = fields
		}
		return map[string]any{"simple_query_string": q}
	case TextRaw:
		return t.raw
	default:
		return map[string]any{"match_all": map[string]any{}}
	}
}
