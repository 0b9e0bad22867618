package memory

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// #region kind-weights
// kindWeights is the base importance per event kind. Chat and gifts carry the
// most signal; periodic context snapshots the least.
var kindWeights = map[string]float64{
	KindChat:     0.9,
	KindItemGift: 0.9,
	KindCombat:   0.8,
	KindSystem:   0.4,
	KindContext:  0.3,
}

const defaultKindWeight = 0.4

// emphaticWords in chat mark things the player wants remembered.
var emphaticWords = []string{
	"remember", "important", "forever", "always", "never",
	"hate", "love", "favorite", "rule", "must",
}

// #endregion kind-weights

// #region score
// scoreImportance rates an event 0..1 from its kind and content. The external
// trait scorer, when present and willing, overrides this entirely.
func (s *Store) scoreImportance(actor, kind, content string) float64 {
	if s.scorer != nil {
		if v, ok := s.scorer.ScoreEvent(actor, kind, content); ok {
			return clamp01(v)
		}
	}

	w, ok := kindWeights[kind]
	if !ok {
		w = defaultKindWeight
	}
	score := w

	if kind == KindChat {
		lower := strings.ToLower(content)
		for _, word := range emphaticWords {
			if strings.Contains(lower, word) {
				score += 0.2
				break
			}
		}
		if strings.Contains(content, "?") {
			score += 0.15
		}
		if strings.ContainsFunc(content, unicode.IsDigit) {
			score += 0.1
		}
		if hasProperName(content) {
			score += 0.15
		}
	}

	return clamp01(score)
}

// hasProperName reports a capitalized word of length > 2 past the first word.
func hasProperName(text string) bool {
	words := strings.Fields(text)
	for i, w := range words {
		if i == 0 || len(w) <= 2 {
			continue
		}
		r := []rune(w)[0]
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion score

// #region decay
// decayedImportance halves importance every half-life of age.
func decayedImportance(importance float64, age, halfLife time.Duration) float64 {
	if halfLife <= 0 || age <= 0 {
		return importance
	}
	return importance * math.Pow(0.5, age.Seconds()/halfLife.Seconds())
}

// #endregion decay
