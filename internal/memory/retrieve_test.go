package memory

import (
	"strings"
	"testing"
	"time"
)

// #region budget-tests
func TestRetrieve_BudgetDropsLowestScores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RelevanceFloor = 1.0 // score = importance, no keyword term
	scorer := fixedScorer{scores: map[string]float64{
		"aaaaaaaaaa": 0.9,
		"bbbbbbbbbb": 0.5,
		"cccccccccc": 0.2,
	}}
	s := newTestStore(t, cfg, scorer)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, s, "Steve", KindChat, "cccccccccc", base)
	mustInsert(t, s, "Steve", KindChat, "aaaaaaaaaa", base.Add(time.Second))
	mustInsert(t, s, "Steve", KindChat, "bbbbbbbbbb", base.Add(2*time.Second))

	// Budget covers exactly two 10-byte items.
	items, err := s.Retrieve("Steve", "", 20)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Content != "aaaaaaaaaa" || items[1].Content != "bbbbbbbbbb" {
		t.Errorf("kept %q, %q; want the 0.9 and 0.5 items", items[0].Content, items[1].Content)
	}

	total := 0
	for _, it := range items {
		total += len(it.Content)
	}
	if total > 20 {
		t.Errorf("returned %d bytes over a 20-byte budget", total)
	}
}

func TestRetrieve_ZeroBudget(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), nil)
	mustInsert(t, s, "Steve", KindChat, "hello", time.Now())
	items, err := s.Retrieve("Steve", "", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("zero budget must return nothing, got %d items", len(items))
	}
}

// #endregion budget-tests

// #region determinism-tests
func TestRetrieve_Deterministic(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), nil)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{
		"found diamonds near the river",
		"Steve gave me a fish",
		"creeper exploded by the gate",
		"building a tower at spawn",
	} {
		mustInsert(t, s, "Steve", KindChat, content, base.Add(time.Duration(i)*time.Second))
	}

	first, err := s.Retrieve("Steve", "what about the diamonds", 200)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	second, err := s.Retrieve("Steve", "what about the diamonds", 200)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestRetrieve_RelevanceBiasesOrder(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), fixedScorer{scores: map[string]float64{
		"found diamonds near the river": 0.5,
		"creeper exploded by the gate":  0.5,
	}})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, s, "Steve", KindChat, "creeper exploded by the gate", base)
	mustInsert(t, s, "Steve", KindChat, "found diamonds near the river", base.Add(time.Second))

	items, err := s.Retrieve("Steve", "diamonds river", 200)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(items) == 0 || !strings.Contains(items[0].Content, "diamonds") {
		t.Errorf("query-relevant item should rank first, got %+v", items)
	}
}

// #endregion determinism-tests

// #region tier-order-tests
func TestRetrieve_ImportantBeforeRecent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecencyHorizon = time.Minute
	scorer := fixedScorer{scores: map[string]float64{
		"promoted fact": 0.9,
		"fresh noise":   0.9,
	}}
	s := newTestStore(t, cfg, scorer)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, s, "Steve", KindChat, "promoted fact", base)
	if err := s.Sweep(base.Add(2 * time.Minute)); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	mustInsert(t, s, "Steve", KindChat, "fresh noise", base.Add(3*time.Minute))

	items, err := s.Retrieve("Steve", "", 200)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Content != "promoted fact" {
		t.Errorf("important tier must come first, got %q", items[0].Content)
	}
}

func TestRetrieve_ActorFilterKeepsSharedKinds(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), nil)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, s, "Steve", KindChat, "steve says hi", base)
	mustInsert(t, s, "Alex", KindChat, "alex says hi", base)
	mustInsert(t, s, "bot", KindContext, "at 10,64,3 holding stick", base)

	items, err := s.Retrieve("Steve", "", 500)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, it := range items {
		if it.Actor == "Alex" && it.Kind == KindChat {
			t.Errorf("another actor's chat leaked into retrieval: %+v", it)
		}
	}
	foundContext := false
	for _, it := range items {
		if it.Kind == KindContext {
			foundContext = true
		}
	}
	if !foundContext {
		t.Error("context entries should serve every actor")
	}
}

// #endregion tier-order-tests
