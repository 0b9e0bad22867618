package memory

import (
	"fmt"
	"time"
)

// #region promotion-log
// PromotionEntry is one recorded tier transition (or drop). The log is what
// makes the promotion/decay machine auditable instead of scoring scattered
// across call sites.
type PromotionEntry struct {
	ItemID     string
	FromTier   string
	ToTier     string // tier name or "dropped"
	Importance float64
	Reason     string
	CreatedAt  time.Time
}

func (s *Store) logPromotionLocked(itemID, from, to string, importance float64, reason string, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO promotion_log (item_id, from_tier, to_tier, importance, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, from, to, importance, nullIfEmpty(reason),
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log promotion: %w", err)
	}
	return nil
}

// Promotions returns the most recent tier transitions, newest first.
func (s *Store) Promotions(limit int) ([]PromotionEntry, error) {
	rows, err := s.db.Query(
		`SELECT item_id, from_tier, to_tier, importance, reason, created_at
		 FROM promotion_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("promotions: %w", err)
	}
	defer rows.Close()

	var entries []PromotionEntry
	for rows.Next() {
		var e PromotionEntry
		var reason, createdStr *string
		if err := rows.Scan(&e.ItemID, &e.FromTier, &e.ToTier, &e.Importance, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		if reason != nil {
			e.Reason = *reason
		}
		if createdStr != nil {
			e.CreatedAt, _ = time.Parse(time.RFC3339Nano, *createdStr)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion promotion-log

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
