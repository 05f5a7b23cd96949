package answer

import (
	"time"
	"unicode/utf8"
)

type stringRule struct {
	field string
	max   int
	ref   func(*Answer) *string
}

type listRule struct {
	field    string
	maxItems int
	maxLen   int
	ref      func(*Answer) *[]string
}

// Schema is the single declarative description of answer limits.
// Validate applies it uniformly to every answer kind.
type Schema struct {
	strings         []stringRule
	lists           []listRule
	maxApplications int
	maxHighlights   int
	maxItemLength   int
	fallback        Kind
	now             func() time.Time
}

// Field limits.
const (
	MaxSummary         = 500
	MaxMessage         = 2000
	MaxHTMLTable       = 10000
	MaxMermaid         = 5000
	MaxApplications    = 20
	MaxHighlights      = 5
	MaxInsights        = 10
	MaxSuggestions     = 5
	MaxItemLength      = 200
	TimestampLayout    = time.RFC3339
	defaultFallbackTag = KindTextFallback
)

// DefaultSchema returns the production schema.
func DefaultSchema() Schema {
	return NewSchema(time.Now)
}

// NewSchema builds the schema with an injectable clock.
func NewSchema(now func() time.Time) Schema {
	return Schema{
		strings: []stringRule{
			{"summary", MaxSummary, func(a *Answer) *string { return &a.Summary }},
			{"message", MaxMessage, func(a *Answer) *string { return &a.Message }},
			{"html_table", MaxHTMLTable, func(a *Answer) *string { return &a.HTMLTable }},
			{"mermaid_diagram", MaxMermaid, func(a *Answer) *string { return &a.MermaidDiagram }},
		},
		lists: []listRule{
			{"insights", MaxInsights, MaxItemLength, func(a *Answer) *[]string { return &a.Insights }},
			{"suggestions", MaxSuggestions, MaxItemLength, func(a *Answer) *[]string { return &a.Suggestions }},
		},
		maxApplications: MaxApplications,
		maxHighlights:   MaxHighlights,
		maxItemLength:   MaxItemLength,
		fallback:        defaultFallbackTag,
		now:             now,
	}
}

// Validate re-tags unknown kinds, clamps every bounded field and defaults the
// timestamp. It is idempotent: Validate(Validate(a)) == Validate(a).
func (s Schema) Validate(a Answer) Answer {
	if !a.Kind.IsValid() {
		a.Kind = s.fallback
	}
	if a.TotalFound < 0 {
		a.TotalFound = 0
	}

	for _, r := range s.strings {
		p := r.ref(&a)
		*p = Truncate(*p, r.max)
	}
	for _, r := range s.lists {
		p := r.ref(&a)
		*p = clampList(*p, r.maxItems, r.maxLen)
	}

	if len(a.Applications) > s.maxApplications {
		a.Applications = a.Applications[:s.maxApplications]
	}
	apps := make([]Application, len(a.Applications))
	for i, app := range a.Applications {
		app.Name = Truncate(app.Name, s.maxItemLength)
		app.ID = Truncate(app.ID, s.maxItemLength)
		app.Country = Truncate(app.Country, s.maxItemLength)
		app.Criticality = Truncate(app.Criticality, s.maxItemLength)
		app.Status = Truncate(app.Status, s.maxItemLength)
		app.Deploy = Truncate(app.Deploy, s.maxItemLength)
		app.Highlights = clampList(app.Highlights, s.maxHighlights, s.maxItemLength)
		apps[i] = app
	}
	a.Applications = apps

	if a.Timestamp == "" {
		a.Timestamp = s.now().UTC().Format(TimestampLayout)
	}
	return a
}

// clampList never returns nil so the JSON shape is always an array.
func clampList(items []string, maxItems, maxLen int) []string {
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = Truncate(it, maxLen)
	}
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
