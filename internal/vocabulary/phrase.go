package vocabulary

import "strings"

// PhraseSet matches folded phrases against a token stream on word boundaries.
type PhraseSet struct {
	phrases [][]string
}

// NewPhraseSet tokenizes every phrase once. Empty phrases are dropped.
func NewPhraseSet(phrases []string) PhraseSet {
	ps := PhraseSet{phrases: make([][]string, 0, len(phrases))}
	for _, p := range phrases {
		if toks := Tokens(p); len(toks) > 0 {
			ps.phrases = append(ps.phrases, toks)
		}
	}
	return ps
}

// Match reports whether any phrase occurs as a contiguous token run.
func (ps PhraseSet) Match(tokens []string) bool {
	_, ok := ps.Find(tokens)
	return ok
}

// Find returns the token index just past the first phrase occurrence
// (earliest position, then declaration order).
func (ps PhraseSet) Find(tokens []string) (int, bool) {
	for i := range tokens {
		for _, p := range ps.phrases {
			if hasPrefix(tokens[i:], p) {
				return i + len(p), true
			}
		}
	}
	return 0, false
}

// MatchPrefix reports whether tokens start with any phrase.
func (ps PhraseSet) MatchPrefix(tokens []string) bool {
	for _, p := range ps.phrases {
		if hasPrefix(tokens, p) {
			return true
		}
	}
	return false
}

// Len returns the number of phrases.
func (ps PhraseSet) Len() int { return len(ps.phrases) }

func hasPrefix(tokens, phrase []string) bool {
	if len(phrase) > len(tokens) {
		return false
	}
	for i, w := range phrase {
		if tokens[i] != w {
			return false
		}
	}
	return true
}

// shortKeyword is the rune length at or below which a keyword must match a
// whole token (or its plural), so "rto" never fires inside "cierto".
const shortKeyword = 3

// Keywords matches folded keywords at token starts. It favors recall:
// "app" matches "apps" and the stem "estratégic" matches "estratégicas".
// In a multi-word keyword only the last word is matched as a prefix.
type Keywords struct {
	words [][]string
}

// NewKeywords tokenizes every keyword once.
func NewKeywords(words ...[]string) Keywords {
	var k Keywords
	for _, list := range words {
		for _, w := range list {
			if toks := Tokens(w); len(toks) > 0 {
				k.words = append(k.words, toks)
			}
		}
	}
	return k
}

// In reports whether any keyword occurs in the already folded text.
func (k Keywords) In(folded string) bool {
	tokens := Tokens(folded)
	for i := range tokens {
		for _, w := range k.words {
			if keywordAt(tokens[i:], w) {
				return true
			}
		}
	}
	return false
}

func keywordAt(tokens, kw []string) bool {
	if len(kw) > len(tokens) {
		return false
	}
	last := len(kw) - 1
	if !hasPrefix(tokens, kw[:last]) {
		return false
	}
	tok, w := tokens[last], kw[last]
	if len([]rune(w)) <= shortKeyword {
		return tok == w || tok == w+"s"
	}
	return strings.HasPrefix(tok, w)
}
