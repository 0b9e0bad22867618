package memory

import (
	"sort"
	"time"
)

// #region retrieve
// Retrieve returns memories for prompt construction: important first, then
// recent, then archive only if budget remains. Within a tier the ordering is
// greedy highest score first, score = importance × (floor + (1-floor) ×
// keyword relevance to the query). Ties break by newer timestamp, then item
// id, so identical store state and query always produce identical output.
// The combined content size never exceeds budget bytes; when candidates
// overflow, the dropped items are exactly the lowest-scoring ones.
func (s *Store) Retrieve(actor, queryContext string, budget int) ([]Item, error) {
	if budget <= 0 {
		return nil, nil
	}
	queryTokens := tokenize(queryContext)

	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := budget
	var out []Item
	for _, tier := range []string{TierImportant, TierRecent, TierArchive} {
		if remaining <= 0 {
			break
		}
		items, err := s.tierLocked(tier)
		if err != nil {
			// Store faults degrade to a partial result, never to the caller.
			return out, nil
		}
		if actor != "" {
			items = filterActor(items, actor)
		}
		picked := pickGreedy(items, queryTokens, s.config.RelevanceFloor, remaining)
		for _, it := range picked {
			remaining -= it.size()
		}
		out = append(out, picked...)
	}

	s.touchLocked(out)
	return out, nil
}

// pickGreedy orders candidates by score and takes them while they fit.
// Items too large for the remaining budget are skipped, not truncated.
func pickGreedy(items []Item, queryTokens []string, floor float64, budget int) []Item {
	type scored struct {
		item  Item
		score float64
	}
	cands := make([]scored, 0, len(items))
	for _, it := range items {
		rel := relevance(queryTokens, it.Content)
		cands = append(cands, scored{it, it.Importance * (floor + (1-floor)*rel)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if !cands[i].item.Timestamp.Equal(cands[j].item.Timestamp) {
			return cands[i].item.Timestamp.After(cands[j].item.Timestamp)
		}
		return cands[i].item.ID < cands[j].item.ID
	})

	var picked []Item
	for _, c := range cands {
		sz := c.item.size()
		if sz > budget {
			continue
		}
		picked = append(picked, c.item)
		budget -= sz
	}
	return picked
}

func filterActor(items []Item, actor string) []Item {
	var out []Item
	for _, it := range items {
		// Context and system entries serve every actor.
		if it.Actor == actor || it.Kind == KindContext || it.Kind == KindSystem {
			out = append(out, it)
		}
	}
	return out
}

// touchLocked stamps last_accessed on retrieved items. Failures are ignored;
// access times are advisory.
func (s *Store) touchLocked(items []Item) {
	if len(items) == 0 {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, it := range items {
		_, _ = s.db.Exec(`UPDATE memory_items SET last_accessed = ? WHERE item_id = ?`, now, it.ID)
	}
}

// #endregion retrieve
