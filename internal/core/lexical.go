package core

import (
	"strings"
	"unicode"
)

// minTokenLen drops one-character noise tokens before counting.
const minTokenLen = 2

// DefaultStopwords returns the built-in English stop-word set. Deployments
// targeting another language inject their own set via configuration.
func DefaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further",
		"than", "so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "not", "no", "nor", "now",
		"what", "which", "who", "whom", "when", "where", "why", "how", "all",
		"any", "both", "each", "few", "more", "most", "other", "some", "only",
		"they", "them", "their", "we", "our", "you", "your", "he", "she",
		"his", "her", "has", "have", "had", "do", "does", "did", "would",
		"should", "could", "there", "here",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TermFrequencies computes the term-frequency signature of a chunk:
// lowercase, strip to letters and digits, tokenize on whitespace, drop short
// tokens and stop words, count. Pure function of the text.
func TermFrequencies(text string, stopwords map[string]struct{}) map[string]int {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	freqs := make(map[string]int)
	for _, token := range strings.Fields(normalized) {
		if len([]rune(token)) < minTokenLen {
			continue
		}
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		freqs[token]++
	}
	return freqs
}
