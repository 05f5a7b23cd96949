package indexer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunk size bounds in characters.
const (
	DefaultMaxChunkChars = 500
	DefaultMinChunkChars = 50
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Chunker splits long enriched texts on sentence boundaries.
type Chunker struct {
	Max int
	Min int
}

// Split returns text unchanged when it fits. Otherwise it packs sentences up to
// Max characters; every chunk after the first repeats the text's leading
// "label:" prefix so it keeps its application context. A trailing piece of at
// most Min characters is folded into the previous chunk.
func (c Chunker) Split(text string) []string {
	maxLen, minLen := c.Max, c.Min
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkChars
	}
	if minLen <= 0 {
		minLen = DefaultMinChunkChars
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	prefix := ""
	if head, _, ok := strings.Cut(text, ":"); ok {
		prefix = head + ": "
	}

	var chunks []string
	current := ""
	for _, sentence := range sentenceEnd.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		candidate := current + sentence + ". "
		if utf8.RuneCountInString(candidate) > maxLen && utf8.RuneCountInString(current) > minLen {
			chunks = append(chunks, strings.TrimSpace(current))
			current = prefix + sentence + ". "
			continue
		}
		current = candidate
	}

	tail := strings.TrimSpace(current)
	switch {
	case utf8.RuneCountInString(tail) > minLen || len(chunks) == 0:
		chunks = append(chunks, tail)
	case tail != "" && tail != strings.TrimSpace(prefix):
		// Короткий хвост не теряем, приклеиваем к предыдущему чанку.
		rest := strings.TrimSpace(strings.TrimPrefix(tail, prefix))
		chunks[len(chunks)-1] += " " + rest
	}
	return chunks
}
