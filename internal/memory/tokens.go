package memory

import (
	"strings"
	"unicode"
)

// #region stopwords
// stopwords are excluded from relevance matching so "what did the player say"
// matches on "player" and "say", not on filler.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"will": true, "would": true, "could": true, "should": true,
	"can": true, "not": true, "no": true, "and": true, "or": true,
	"but": true, "if": true, "then": true, "so": true, "as": true,
	"at": true, "by": true, "for": true, "from": true, "in": true,
	"into": true, "of": true, "on": true, "to": true, "with": true,
	"about": true, "it": true, "its": true, "this": true, "that": true,
	"what": true, "which": true, "who": true, "how": true, "when": true,
	"where": true, "why": true, "you": true, "me": true, "i": true,
	"my": true, "your": true, "we": true, "they": true, "he": true,
	"she": true, "her": true, "him": true, "us": true, "them": true,
}

// tokenize splits text into unique lowercase non-stopword tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// relevance is the fraction of query tokens present in the content. An empty
// query is neutral (1.0) so retrieval degrades to pure importance ranking.
func relevance(queryTokens []string, content string) float64 {
	if len(queryTokens) == 0 {
		return 1.0
	}
	set := make(map[string]bool)
	for _, t := range tokenize(content) {
		set[t] = true
	}
	shared := 0
	for _, t := range queryTokens {
		if set[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(queryTokens))
}

// #endregion stopwords
