package answer

import (
	"encoding/json"
	"strings"

	domanswer "github.com/kailas-cloud/portfolio-rag/internal/domain/answer"
)

// parseLenient is best-effort recovery, not a parser: a direct decode first,
// then the first balanced {...} object found in the text.
func parseLenient(raw string) (domanswer.Answer, bool) {
	var a domanswer.Answer

	text := strings.TrimSpace(raw)
	if text == "" {
		return a, false
	}
	if json.Unmarshal([]byte(text), &a) == nil {
		return a, true
	}

	obj, ok := firstObject(text)
	if !ok {
		return domanswer.Answer{}, false
	}
	a = domanswer.Answer{}
	if json.Unmarshal([]byte(obj), &a) != nil {
		return domanswer.Answer{}, false
	}
	return a, true
}

// firstObject returns the first brace-balanced object in s. Braces inside
// JSON strings are skipped.
func firstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
