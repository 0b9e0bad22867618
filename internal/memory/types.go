package memory

import "time"

// #region tiers
// Tier names. An item belongs to exactly one tier at a time and only ever
// moves recent → important → archive.
const (
	TierRecent    = "recent"
	TierImportant = "important"
	TierArchive   = "archive"
)

// Event kinds written into the store.
const (
	KindChat     = "chat"
	KindItemGift = "item-gift"
	KindCombat   = "combat"
	KindContext  = "context"
	KindSystem   = "system"
)

// #endregion tiers

// #region item
// Item is one memory entry. The store exclusively owns all items; nothing
// outside mutates them after insertion except the store's own promotion and
// decay routines.
type Item struct {
	ID           string    `json:"id"`
	Tier         string    `json:"tier"`
	Timestamp    time.Time `json:"timestamp"`
	Actor        string    `json:"actor"` // player name or "bot"
	Kind         string    `json:"kind"`
	Content      string    `json:"content"`
	Importance   float64   `json:"importance"`
	LastAccessed time.Time `json:"last_accessed,omitempty"`

	// Archive-only fields.
	DayBucket string `json:"day_bucket,omitempty"` // YYYY-MM-DD
	Summary   string `json:"summary,omitempty"`    // compacted text, backend-supplied
}

// size is the item's contribution to a retrieval budget, in content bytes.
func (it Item) size() int {
	if it.Tier == TierArchive && it.Summary != "" {
		return len(it.Summary)
	}
	return len(it.Content)
}

// #endregion item

// #region config
// Config bounds the store and tunes promotion, decay, and retrieval.
type Config struct {
	RecentMax    int // recent tier bound
	ImportantMax int // important tier bound

	PromoteThreshold float64 // recent → important when importance ≥ this
	DropThreshold    float64 // decayed items below this are dropped or archived

	RecencyHorizon time.Duration // recent items older than this get evaluated
	DecayHalfLife  time.Duration // importance halves every interval
	ArchiveAfter   time.Duration // faded important items older than this archive

	RelevanceFloor float64 // retrieval score floor when no keyword overlap
}

// DefaultConfig mirrors the shipped tuning.yaml values.
func DefaultConfig() Config {
	return Config{
		RecentMax:        20,
		ImportantMax:     100,
		PromoteThreshold: 0.4,
		DropThreshold:    0.1,
		RecencyHorizon:   time.Minute,
		DecayHalfLife:    time.Hour,
		ArchiveAfter:     24 * time.Hour,
		RelevanceFloor:   0.5,
	}
}

// #endregion config

// #region hooks
// TraitScorer is the external personality/importance signal. When it reports
// ok=false the store falls back to its own kind/content scoring.
type TraitScorer interface {
	ScoreEvent(actor, kind, content string) (score float64, ok bool)
}

// Summarizer compacts items at archive time. Summarization belongs to the
// reasoning backend; the store only stores what it returns. A nil Summarizer
// falls back to a truncated verbatim line.
type Summarizer func(items []Item) string

// #endregion hooks
