package answer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func fixedSchema() Schema {
	return NewSchema(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
}

func TestValidate_UnknownKind(t *testing.T) {
	a := fixedSchema().Validate(Answer{Kind: "poem"})
	if a.Kind != KindTextFallback {
		t.Errorf("Kind = %q, want text_fallback", a.Kind)
	}
}

func TestValidate_KnownKindsPreserved(t *testing.T) {
	s := fixedSchema()
	for _, k := range Kinds {
		if got := s.Validate(Answer{Kind: k}).Kind; got != k {
			t.Errorf("Validate changed %q to %q", k, got)
		}
	}
}

func TestValidate_TimestampDefaulted(t *testing.T) {
	a := fixedSchema().Validate(Answer{Kind: KindSuccess})
	if a.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("Timestamp = %q", a.Timestamp)
	}

	b := fixedSchema().Validate(Answer{Kind: KindSuccess, Timestamp: "2020-01-01T00:00:00Z"})
	if b.Timestamp != "2020-01-01T00:00:00Z" {
		t.Errorf("existing timestamp overwritten: %q", b.Timestamp)
	}
}

func TestValidate_StringLimits(t *testing.T) {
	a := fixedSchema().Validate(Answer{
		Kind:           KindSuccess,
		Summary:        strings.Repeat("s", 600),
		Message:        strings.Repeat("m", 2500),
		HTMLTable:      strings.Repeat("h", 12000),
		MermaidDiagram: strings.Repeat("d", 6000),
	})
	checks := map[string]struct{ got, want int }{
		"summary": {len(a.Summary), MaxSummary},
		"message": {len(a.Message), MaxMessage},
		"html":    {len(a.HTMLTable), MaxHTMLTable},
		"mermaid": {len(a.MermaidDiagram), MaxMermaid},
	}
	for name, c := range checks {
		if c.got != c.want {
			t.Errorf("%s length = %d, want %d", name, c.got, c.want)
		}
	}
}

func TestValidate_ApplicationsClamped(t *testing.T) {
	apps := make([]Application, 25)
	for i := range apps {
		apps[i] = Application{
			Name:       "app",
			Highlights: []string{strings.Repeat("x", 300), "b", "c", "d", "e", "f", "g"},
		}
	}
	a := fixedSchema().Validate(Answer{Kind: KindSuccess, Applications: apps})

	if len(a.Applications) != 20 {
		t.Fatalf("applications = %d, want 20", len(a.Applications))
	}
	for i, app := range a.Applications {
		if len(app.Highlights) != 5 {
			t.Errorf("app %d highlights = %d, want 5", i, len(app.Highlights))
		}
		for _, h := range app.Highlights {
			if len([]rune(h)) > 200 {
				t.Errorf("app %d highlight too long: %d", i, len([]rune(h)))
			}
		}
	}
}

func TestValidate_ListLimits(t *testing.T) {
	insights := make([]string, 15)
	suggestions := make([]string, 8)
	for i := range insights {
		insights[i] = strings.Repeat("i", 250)
	}
	a := fixedSchema().Validate(Answer{Kind: KindSuccess, Insights: insights, Suggestions: suggestions})
	if len(a.Insights) != MaxInsights {
		t.Errorf("insights = %d", len(a.Insights))
	}
	if len(a.Insights[0]) != MaxItemLength {
		t.Errorf("insight length = %d", len(a.Insights[0]))
	}
	if len(a.Suggestions) != MaxSuggestions {
		t.Errorf("suggestions = %d", len(a.Suggestions))
	}
}

func TestValidate_NilListsBecomeEmpty(t *testing.T) {
	a := fixedSchema().Validate(Answer{Kind: KindNoResults})
	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"applications":[]`, `"insights":[]`, `"suggestions":[]`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("expected %s in %s", key, raw)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	s := fixedSchema()
	apps := make([]Application, 22)
	for i := range apps {
		apps[i] = Application{Name: strings.Repeat("ñ", 250), Highlights: []string{"a", "b", "c", "d", "e", "f"}}
	}
	in := Answer{
		Kind:         "unknown",
		Summary:      strings.Repeat("é", 700),
		TotalFound:   -4,
		Applications: apps,
		Insights:     []string{strings.Repeat("z", 900)},
	}

	once := s.Validate(in)
	twice := s.Validate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("Validate is not idempotent")
	}
}

func TestTruncate_Runes(t *testing.T) {
	if got := Truncate("áéíóú", 3); got != "áéí" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestCount_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Count
		err  bool
	}{
		{`12`, 12, false},
		{`"7"`, 7, false},
		{`3.0`, 3, false},
		{`null`, 0, false},
		{`"many"`, 0, true},
	}
	for _, tt := range tests {
		var c Count
		err := json.Unmarshal([]byte(tt.in), &c)
		if (err != nil) != tt.err {
			t.Errorf("Unmarshal(%s) err = %v", tt.in, err)
			continue
		}
		if !tt.err && c != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, c, tt.want)
		}
	}
}
