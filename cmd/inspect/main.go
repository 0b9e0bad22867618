package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"petbridge/internal/memory"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to petbridge.db")
	tier := flag.String("tier", "", "dump one tier: recent, important, or archive")
	promotions := flag.Int("promotions", 0, "show N most recent tier transitions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/petbridge.db [--tier name] [--promotions N] [--json]")
		os.Exit(2)
	}

	store, err := memory.NewStore(*dbPath, memory.DefaultConfig(), nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *promotions > 0:
		err = runPromotions(store, *promotions, *jsonOut)
	case *tier != "":
		err = runTier(store, *tier, *jsonOut)
	default:
		err = runSummary(store, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region summary-mode

type summaryOutput struct {
	Recent    int            `json:"recent"`
	Important int            `json:"important"`
	Archive   int            `json:"archive"`
	Histogram map[string]int `json:"importance_histogram"`
}

func runSummary(store *memory.Store, jsonOut bool) error {
	recent, important, archive, err := store.Counts()
	if err != nil {
		return err
	}

	hist := map[string]int{}
	for _, tier := range []string{memory.TierRecent, memory.TierImportant, memory.TierArchive} {
		items, err := store.Tier(tier)
		if err != nil {
			return err
		}
		for _, it := range items {
			hist[histBucket(it.Importance)]++
		}
	}

	out := summaryOutput{Recent: recent, Important: important, Archive: archive, Histogram: hist}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("%-10s  %d\n", "recent", out.Recent)
	fmt.Printf("%-10s  %d\n", "important", out.Important)
	fmt.Printf("%-10s  %d\n", "archive", out.Archive)
	fmt.Printf("\nImportance histogram:\n")
	for _, bucket := range histBuckets {
		if n := hist[bucket]; n > 0 {
			fmt.Printf("  %-10s %-4d %s\n", bucket, n, strings.Repeat("#", n))
		}
	}
	return nil
}

var histBuckets = []string{"0.0-0.2", "0.2-0.4", "0.4-0.6", "0.6-0.8", "0.8-1.0"}

func histBucket(importance float64) string {
	switch {
	case importance < 0.2:
		return histBuckets[0]
	case importance < 0.4:
		return histBuckets[1]
	case importance < 0.6:
		return histBuckets[2]
	case importance < 0.8:
		return histBuckets[3]
	default:
		return histBuckets[4]
	}
}

// #endregion summary-mode

// #region tier-mode

func runTier(store *memory.Store, tier string, jsonOut bool) error {
	items, err := store.Tier(tier)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "tier %s is empty\n", tier)
		return nil
	}

	fmt.Printf("%-10s  %-10s  %-10s  %6s  %-20s  %s\n",
		"Item", "Actor", "Kind", "Imp", "Time", "Content")
	for _, it := range items {
		content := it.Content
		if it.Tier == memory.TierArchive && it.Summary != "" {
			content = fmt.Sprintf("[%s] %s", it.DayBucket, it.Summary)
		}
		fmt.Printf("%-10s  %-10s  %-10s  %6.3f  %-20s  %s\n",
			shortID(it.ID), it.Actor, it.Kind, it.Importance,
			it.Timestamp.Format("2006-01-02T15:04:05Z"), truncate(content, 60))
	}
	return nil
}

// #endregion tier-mode

// #region promotions-mode

func runPromotions(store *memory.Store, limit int, jsonOut bool) error {
	entries, err := store.Promotions(limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "promotion log is empty")
		return nil
	}

	fmt.Printf("%-10s  %-10s  %-10s  %6s  %-20s  %s\n",
		"Item", "From", "To", "Imp", "Time", "Reason")
	for _, e := range entries {
		fmt.Printf("%-10s  %-10s  %-10s  %6.3f  %-20s  %s\n",
			shortID(e.ItemID), e.FromTier, e.ToTier, e.Importance,
			e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.Reason)
	}
	return nil
}

// #endregion promotions-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-1] + "…"
	}
	return s
}

// #endregion output
