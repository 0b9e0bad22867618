package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"petbridge/internal/memory"
	"petbridge/internal/protocol"
	"petbridge/internal/translog"
)

// #region main

func main() {
	dir := flag.String("transcripts", "", "transcript directory to replay")
	budget := flag.Int("budget", 2048, "retrieval budget in bytes")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --transcripts path/to/transcripts [--budget N]")
		os.Exit(2)
	}

	entries, err := translog.ReadDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load transcripts: %v\n", err)
		os.Exit(2)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no transcript entries found")
		os.Exit(2)
	}

	os.Exit(run(entries, *budget))
}

// #endregion main

// #region replay

// run feeds every chat and context entry through a fresh store in recorded
// order, timestamped with the recorded times so decay and promotion replay
// exactly. After each chat the same retrieval runs twice; any divergence
// between the two passes means retrieval is not deterministic.
func run(entries []translog.Entry, budget int) int {
	dbPath := filepath.Join(os.TempDir(), fmt.Sprintf("petbridge-replay-%d.db", os.Getpid()))
	defer os.Remove(dbPath)

	store, err := memory.NewStore(dbPath, memory.DefaultConfig(), nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open replay store: %v\n", err)
		return 2
	}
	defer store.Close()

	fmt.Printf("%-6s| %-10s| %-40s| %s\n", "Turn", "Player", "Chat", "Retrieval")
	fmt.Printf("%-6s+%-11s+%-41s+%s\n", "------", "-----------", strings.Repeat("-", 41), "----------")

	turn := 0
	diverged := 0
	for _, e := range entries {
		switch e.Type {
		case translog.EntryContext:
			if e.Context == nil {
				continue
			}
			if _, err := store.Insert("bot", memory.KindContext, contextLine(*e.Context), e.Time); err != nil {
				fmt.Fprintf(os.Stderr, "insert context: %v\n", err)
				return 2
			}
			if err := store.Sweep(e.Time); err != nil {
				fmt.Fprintf(os.Stderr, "sweep: %v\n", err)
				return 2
			}
		case translog.EntryChat:
			if e.Chat == nil {
				continue
			}
			turn++
			if _, err := store.Insert(e.Chat.Player, memory.KindChat, e.Chat.Message, e.Time); err != nil {
				fmt.Fprintf(os.Stderr, "insert chat: %v\n", err)
				return 2
			}

			status := "OK"
			if !retrievalStable(store, e.Chat.Player, e.Chat.Message, budget) {
				status = "DIVERGE"
				diverged++
			}
			fmt.Printf("%-6d| %-10s| %-40s| %s\n", turn, e.Chat.Player, truncate(e.Chat.Message, 40), status)
		}
	}

	recent, important, archive, err := store.Counts()
	if err == nil {
		fmt.Printf("\nFinal store: %d recent, %d important, %d archive\n", recent, important, archive)
	}
	fmt.Printf("Summary: %d chats replayed, %d diverged\n", turn, diverged)

	if diverged > 0 {
		return 1
	}
	return 0
}

// retrievalStable runs the same retrieval twice and compares item sequences.
func retrievalStable(store *memory.Store, actor, query string, budget int) bool {
	first, err1 := store.Retrieve(actor, query, budget)
	second, err2 := store.Retrieve(actor, query, budget)
	if err1 != nil || err2 != nil || len(first) != len(second) {
		return false
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			return false
		}
	}
	return true
}

func contextLine(snap protocol.ContextSnapshot) string {
	line := fmt.Sprintf("at %.0f,%.0f,%.0f", snap.Position.X, snap.Position.Y, snap.Position.Z)
	if snap.HeldItem != "" {
		line += " holding " + snap.HeldItem
	}
	return line
}

// #endregion replay

// #region output

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-1] + "…"
	}
	return s
}

// #endregion output
