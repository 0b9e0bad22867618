package memory

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS memory_items (
	item_id       TEXT PRIMARY KEY,
	tier          TEXT NOT NULL CHECK (tier IN ('recent','important','archive')),
	ts            TEXT NOT NULL,
	actor         TEXT NOT NULL,
	kind          TEXT NOT NULL,
	content       TEXT NOT NULL,
	importance    REAL NOT NULL,
	last_accessed TEXT,
	day_bucket    TEXT,
	summary       TEXT
);

CREATE INDEX IF NOT EXISTS idx_memory_items_tier ON memory_items(tier, ts);

CREATE TABLE IF NOT EXISTS promotion_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id     TEXT NOT NULL,
	from_tier   TEXT NOT NULL,
	to_tier     TEXT NOT NULL,
	importance  REAL NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store is the tiered memory engine. Writers (context pushes, chat events,
// sweeps) are serialized by mu; readers snapshot tier contents through plain
// queries, which WAL keeps consistent against the single writer.
type Store struct {
	db     *sql.DB
	config Config
	scorer TraitScorer
	sum    Summarizer

	mu sync.Mutex
}

// NewStore opens the SQLite database at dbPath and runs migrations.
// scorer and sum may be nil; the store then uses its internal fallbacks.
func NewStore(dbPath string, config Config, scorer TraitScorer, sum Summarizer) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if config.RecentMax <= 0 {
		config = DefaultConfig()
	}
	return &Store{db: db, config: config, scorer: scorer, sum: sum}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store-struct

// #region insert
// Insert scores an event and writes it into the recent tier, then enforces
// the active-set bound. The returned item reflects the stored row.
func (s *Store) Insert(actor, kind, content string, now time.Time) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := Item{
		ID:         uuid.New().String(),
		Tier:       TierRecent,
		Timestamp:  now.UTC(),
		Actor:      actor,
		Kind:       kind,
		Content:    content,
		Importance: s.scoreImportance(actor, kind, content),
	}

	_, err := s.db.Exec(
		`INSERT INTO memory_items (item_id, tier, ts, actor, kind, content, importance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Tier, it.Timestamp.Format(time.RFC3339Nano),
		it.Actor, it.Kind, it.Content, it.Importance,
	)
	if err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}

	if err := s.enforceBoundsLocked(now); err != nil {
		return it, fmt.Errorf("enforce bounds: %w", err)
	}
	return it, nil
}

// enforceBoundsLocked keeps recent and important within their caps. Overflow
// from recent is promoted or dropped by importance; overflow from important
// is compacted into the archive, lowest importance first, older first.
func (s *Store) enforceBoundsLocked(now time.Time) error {
	over, err := s.tierOverflow(TierRecent, s.config.RecentMax, false)
	if err != nil {
		return err
	}
	for _, it := range over {
		if it.Importance >= s.config.PromoteThreshold {
			if err := s.moveTierLocked(it, TierImportant, "recent overflow", now); err != nil {
				return err
			}
		} else {
			if err := s.dropLocked(it, "recent overflow below threshold", now); err != nil {
				return err
			}
		}
	}

	over, err = s.tierOverflow(TierImportant, s.config.ImportantMax, true)
	if err != nil {
		return err
	}
	for _, it := range over {
		if err := s.archiveLocked([]Item{it}, "important overflow", now); err != nil {
			return err
		}
	}
	return nil
}

// tierOverflow returns the items past the cap. For recent the victims are the
// oldest rows; for important the lowest-importance rows, older rows first on
// equal importance.
func (s *Store) tierOverflow(tier string, max int, byImportance bool) ([]Item, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memory_items WHERE tier = ?`, tier).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %s: %w", tier, err)
	}
	if count <= max {
		return nil, nil
	}
	order := "ts ASC"
	if byImportance {
		order = "importance ASC, ts ASC"
	}
	rows, err := s.db.Query(
		`SELECT item_id, tier, ts, actor, kind, content, importance, last_accessed, day_bucket, summary
		 FROM memory_items WHERE tier = ? ORDER BY `+order+`, item_id ASC LIMIT ?`,
		tier, count-max,
	)
	if err != nil {
		return nil, fmt.Errorf("overflow %s: %w", tier, err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// #endregion insert

// #region sweep
// Sweep runs promotion and decay: recent items past the recency horizon are
// promoted or dropped by importance; important items decay by half-life and,
// once faded, are archived (old enough) or dropped. Tier moves are strictly
// recent → important → archive.
func (s *Store) Sweep(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.tierLocked(TierRecent)
	if err != nil {
		return err
	}
	for _, it := range items {
		if now.Sub(it.Timestamp) < s.config.RecencyHorizon {
			continue
		}
		switch {
		case it.Importance >= s.config.PromoteThreshold:
			if err := s.moveTierLocked(it, TierImportant, "recency horizon", now); err != nil {
				return err
			}
		case it.Importance < s.config.DropThreshold:
			if err := s.dropLocked(it, "faded in recent", now); err != nil {
				return err
			}
		}
	}

	items, err = s.tierLocked(TierImportant)
	if err != nil {
		return err
	}
	for _, it := range items {
		age := now.Sub(it.Timestamp)
		decayed := decayedImportance(it.Importance, age, s.config.DecayHalfLife)
		// The only exit from important is demotion to archive: items past
		// the retention horizon go regardless of score, and faded items go
		// early rather than being deleted.
		switch {
		case age >= s.config.ArchiveAfter:
			if err := s.archiveLocked([]Item{it}, "past retention", now); err != nil {
				return err
			}
		case decayed < s.config.DropThreshold:
			if err := s.archiveLocked([]Item{it}, "faded in important", now); err != nil {
				return err
			}
		case decayed != it.Importance:
			if _, err := s.db.Exec(
				`UPDATE memory_items SET importance = ? WHERE item_id = ?`,
				decayed, it.ID,
			); err != nil {
				return fmt.Errorf("decay %s: %w", it.ID, err)
			}
		}
	}
	return nil
}

// #endregion sweep

// #region tier-moves
func (s *Store) moveTierLocked(it Item, to, reason string, now time.Time) error {
	_, err := s.db.Exec(`UPDATE memory_items SET tier = ? WHERE item_id = ?`, to, it.ID)
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", it.ID, to, err)
	}
	return s.logPromotionLocked(it.ID, it.Tier, to, it.Importance, reason, now)
}

// archiveLocked compacts items into the archive tier with a day bucket and a
// summary line. Archive rows are append-only and never promoted back.
func (s *Store) archiveLocked(items []Item, reason string, now time.Time) error {
	summary := s.compact(items)
	for _, it := range items {
		_, err := s.db.Exec(
			`UPDATE memory_items SET tier = ?, day_bucket = ?, summary = ? WHERE item_id = ?`,
			TierArchive, it.Timestamp.UTC().Format("2006-01-02"), summary, it.ID,
		)
		if err != nil {
			return fmt.Errorf("archive %s: %w", it.ID, err)
		}
		if err := s.logPromotionLocked(it.ID, it.Tier, TierArchive, it.Importance, reason, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) dropLocked(it Item, reason string, now time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM memory_items WHERE item_id = ?`, it.ID); err != nil {
		return fmt.Errorf("drop %s: %w", it.ID, err)
	}
	return s.logPromotionLocked(it.ID, it.Tier, "dropped", it.Importance, reason, now)
}

func (s *Store) compact(items []Item) string {
	if s.sum != nil {
		return s.sum(items)
	}
	// Verbatim fallback: first 50 chars of the first item.
	if len(items) == 0 {
		return ""
	}
	line := items[0].Actor + ": " + items[0].Content
	if len(line) > 50 {
		line = line[:50]
	}
	return line
}

// #endregion tier-moves

// #region queries
// Tier returns the items currently in a tier, oldest first.
func (s *Store) Tier(tier string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tierLocked(tier)
}

func (s *Store) tierLocked(tier string) ([]Item, error) {
	rows, err := s.db.Query(
		`SELECT item_id, tier, ts, actor, kind, content, importance, last_accessed, day_bucket, summary
		 FROM memory_items WHERE tier = ? ORDER BY ts ASC, item_id ASC`, tier,
	)
	if err != nil {
		return nil, fmt.Errorf("tier %s: %w", tier, err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Counts reports how many items each tier holds.
func (s *Store) Counts() (recent, important, archive int, err error) {
	rows, err := s.db.Query(`SELECT tier, COUNT(*) FROM memory_items GROUP BY tier`)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return 0, 0, 0, err
		}
		switch tier {
		case TierRecent:
			recent = n
		case TierImportant:
			important = n
		case TierArchive:
			archive = n
		}
	}
	return recent, important, archive, rows.Err()
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var tsStr string
		var lastAccessed, dayBucket, summary sql.NullString
		if err := rows.Scan(&it.ID, &it.Tier, &tsStr, &it.Actor, &it.Kind,
			&it.Content, &it.Importance, &lastAccessed, &dayBucket, &summary); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		if lastAccessed.Valid {
			it.LastAccessed, _ = time.Parse(time.RFC3339Nano, lastAccessed.String)
		}
		if dayBucket.Valid {
			it.DayBucket = dayBucket.String
		}
		if summary.Valid {
			it.Summary = summary.String
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// #endregion queries
