package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// HTML strips <script> elements, on* event-handler attributes and javascript: URIs.
// The output is still low-trust markup: nothing beyond these three removals is guaranteed.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	scriptDepth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a malformed tail: keep what was already cleaned.
			break
		}
		tok := z.Token()

		switch tt {
		case html.StartTagToken:
			if tok.Data == "script" {
				scriptDepth++
				continue
			}
		case html.EndTagToken:
			if tok.Data == "script" {
				if scriptDepth > 0 {
					scriptDepth--
				}
				continue
			}
		case html.SelfClosingTagToken:
			if tok.Data == "script" {
				continue
			}
		case html.CommentToken, html.DoctypeToken:
			continue
		}
		if scriptDepth > 0 {
			continue
		}

		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok.Attr = cleanAttrs(tok.Attr)
		}
		if tt == html.TextToken {
			b.WriteString(html.EscapeString(stripJavascript(tok.Data)))
			continue
		}
		b.WriteString(tok.String())
	}
	return b.String()
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if isJavascriptURI(a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func isJavascriptURI(v string) bool {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.ToLower(v))
	return strings.HasPrefix(compact, jsScheme)
}

const jsScheme = "javascript:"

func stripJavascript(s string) string {
	for {
		i := indexFoldASCII(s, jsScheme)
		if i < 0 {
			return s
		}
		s = s[:i] + s[i+len(jsScheme):]
	}
}

// indexFoldASCII is a case-insensitive strings.Index for an ASCII needle.
// It keeps byte offsets intact, unlike lowering the whole haystack.
func indexFoldASCII(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
