// Package assemble turns a retrieval result plus the live snapshot into the
// single context object handed to the LLM call. It is pure: no store access,
// no clock, no side effects.
package assemble

import (
	"fmt"
	"strings"

	"petbridge/internal/memory"
	"petbridge/internal/protocol"
)

// #region types
// Context is the backend-ready bundle. Snapshot fields are always present;
// memory lines are the balance of the byte budget.
type Context struct {
	Snapshot string   `json:"snapshot"`
	Memories []string `json:"memories"`
	Dropped  int      `json:"dropped"` // memory entries cut to fit the bound
}

// Render flattens the context into one prompt block.
func (c Context) Render() string {
	var b strings.Builder
	b.WriteString("=== WORLD ===\n")
	b.WriteString(c.Snapshot)
	if len(c.Memories) > 0 {
		b.WriteString("\n=== MEMORY ===\n")
		b.WriteString(strings.Join(c.Memories, "\n"))
	}
	return b.String()
}

// #endregion types

// #region build
// Build assembles the context under maxBytes. The snapshot block is never
// cut; when the combined size would overflow, the lowest-priority memory
// entries go first. Items arrive from retrieval already ordered highest
// priority first, so trimming from the tail preserves that contract.
func Build(snap protocol.ContextSnapshot, items []memory.Item, maxBytes int) Context {
	out := Context{Snapshot: formatSnapshot(snap)}
	remaining := maxBytes - len(out.Snapshot)

	for _, it := range items {
		line := formatItem(it)
		if len(line)+1 > remaining {
			out.Dropped++
			continue
		}
		out.Memories = append(out.Memories, line)
		remaining -= len(line) + 1
	}
	return out
}

func formatSnapshot(snap protocol.ContextSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pos %.1f,%.1f,%.1f yaw %.0f pitch %.0f",
		snap.Position.X, snap.Position.Y, snap.Position.Z, snap.Yaw, snap.Pitch)
	if snap.HeldItem != "" {
		fmt.Fprintf(&b, " holding %s (slot %d)", snap.HeldItem, snap.SelectedSlot)
	}
	if snap.BlockBelow != "" {
		fmt.Fprintf(&b, "\nbelow %s", snap.BlockBelow)
	}
	if snap.BlockNorth != "" || snap.BlockSouth != "" || snap.BlockEast != "" || snap.BlockWest != "" {
		fmt.Fprintf(&b, "\naround N:%s S:%s E:%s W:%s",
			snap.BlockNorth, snap.BlockSouth, snap.BlockEast, snap.BlockWest)
	}
	if len(snap.FloorGrid) > 0 {
		fmt.Fprintf(&b, "\nfloor %s", strings.Join(snap.FloorGrid, ","))
	}
	if snap.MoveActive {
		b.WriteString("\nmoving")
	}
	return b.String()
}

func formatItem(it memory.Item) string {
	switch {
	case it.Tier == memory.TierArchive && it.Summary != "":
		return fmt.Sprintf("[%s] %s", it.DayBucket, it.Summary)
	case it.Kind == memory.KindChat:
		return fmt.Sprintf("%s: %s", it.Actor, it.Content)
	default:
		return fmt.Sprintf("[%s] %s", it.Kind, it.Content)
	}
}

// #endregion build
