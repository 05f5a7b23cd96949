// Package answer defines the structured answer envelope and its schema.
package answer

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the answer variant.
type Kind string

// Answer kinds.
const (
	KindSuccess        Kind = "success"
	KindNoResults      Kind = "no_results"
	KindError          Kind = "error"
	KindTextFallback   Kind = "text_fallback"
	KindParseError     Kind = "parse_error"
	KindConversational Kind = "conversational"
)

// Kinds lists every known variant.
var Kinds = []Kind{
	KindSuccess, KindNoResults, KindError,
	KindTextFallback, KindParseError, KindConversational,
}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Application is one application summary inside a success answer.
type Application struct {
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	Country     string   `json:"country,omitempty"`
	Criticality string   `json:"criticality,omitempty"`
	Status      string   `json:"status,omitempty"`
	Deploy      string   `json:"deploy,omitempty"`
	Highlights  []string `json:"highlights"`
}

// Answer is the envelope returned to the caller.
type Answer struct {
	Kind           Kind          `json:"answer_type" jsonschema:"enum=success,enum=no_results,enum=error,enum=text_fallback,enum=parse_error,enum=conversational"`
	Summary        string        `json:"summary"`
	Message        string        `json:"message,omitempty"`
	TotalFound     Count         `json:"total_found"`
	Applications   []Application `json:"applications"`
	Insights       []string      `json:"insights"`
	Suggestions    []string      `json:"suggestions"`
	HTMLTable      string        `json:"html_table,omitempty"`
	MermaidDiagram string        `json:"mermaid_diagram,omitempty"`
	Timestamp      string        `json:"timestamp"`
}

// Count is a non-negative integer that also accepts numeric strings and floats,
// since generator output is loosely typed.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*c = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*c = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = Count(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("total_found: not a number: %q", s)
	}
	*c = Count(int(f))
	return nil
}
