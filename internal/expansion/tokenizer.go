package expansion

import (
	"strings"
	"unicode"
)

const (
	minTokenLen = 2  // exclusive: tokens must be longer than this
	maxTokenLen = 20 // exclusive: tokens must be shorter than this
)

// Tokenize normalizes raw text into index terms: lowercase, replace any
// non-word/non-space rune with a space, split on whitespace, and keep tokens
// with 2 < len < 20. Pure and deterministic; no stemming.
func Tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, text)

	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minTokenLen && len(f) < maxTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet tokenizes text and returns the deduplicated term set.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// termFrequencies counts occurrences of each token in the given token list.
func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}
