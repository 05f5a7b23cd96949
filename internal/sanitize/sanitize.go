// Package sanitize cleans untrusted text: user questions on the way in,
// generated markup on the way out.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

var dangerous = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "`", "")

// Text removes < > " ' and backticks, truncates to maxLength runes and trims.
// maxLength <= 0 disables truncation.
func Text(s string, maxLength int) string {
	s = dangerous.Replace(s)
	if maxLength > 0 && utf8.RuneCountInString(s) > maxLength {
		s = string([]rune(s)[:maxLength])
	}
	return strings.TrimSpace(s)
}

var diagramMarkers = []string{
	"flowchart", "graph", "sequencediagram", "classdiagram", "gantt", "pie",
	"statediagram", "erdiagram",
}

// ValidDiagram reports whether code looks like a mermaid diagram.
// It checks for a known diagram keyword only, not the full grammar.
func ValidDiagram(code string) bool {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return false
	}
	for _, m := range diagramMarkers {
		if strings.Contains(c, m) {
			return true
		}
	}
	return false
}
