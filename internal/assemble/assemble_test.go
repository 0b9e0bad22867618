package assemble

import (
	"strings"
	"testing"
	"time"

	"petbridge/internal/memory"
	"petbridge/internal/protocol"
)

func sampleSnapshot() protocol.ContextSnapshot {
	return protocol.ContextSnapshot{
		Position:   protocol.Vec3{X: 10, Y: 64, Z: -3},
		Yaw:        90,
		HeldItem:   "stick",
		BlockBelow: "grass_block",
		MoveActive: true,
	}
}

func chatItem(content string) memory.Item {
	return memory.Item{
		Tier: memory.TierRecent, Kind: memory.KindChat,
		Actor: "Steve", Content: content, Timestamp: time.Now(),
	}
}

// #region bound-tests
func TestBuild_SnapshotAlwaysSurvives(t *testing.T) {
	items := []memory.Item{chatItem("aaa"), chatItem("bbb"), chatItem("ccc")}
	// Budget smaller than the snapshot block alone.
	ctx := Build(sampleSnapshot(), items, 10)

	if ctx.Snapshot == "" {
		t.Fatal("snapshot must never be dropped")
	}
	if len(ctx.Memories) != 0 {
		t.Errorf("no memory should fit a 10-byte budget, got %d", len(ctx.Memories))
	}
	if ctx.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", ctx.Dropped)
	}
}

func TestBuild_DropsTailFirst(t *testing.T) {
	snap := sampleSnapshot()
	items := []memory.Item{
		chatItem("first and highest priority line"),
		chatItem("second line"),
		chatItem("third line that will not fit either way padding padding padding"),
	}

	snapLen := len(Build(snap, nil, 1<<20).Snapshot)
	budget := snapLen + len("Steve: first and highest priority line") + 1 +
		len("Steve: second line") + 1
	ctx := Build(snap, items, budget)

	if len(ctx.Memories) != 2 {
		t.Fatalf("memories = %d, want 2", len(ctx.Memories))
	}
	if !strings.Contains(ctx.Memories[0], "first") || !strings.Contains(ctx.Memories[1], "second") {
		t.Errorf("kept wrong lines: %v", ctx.Memories)
	}
	if ctx.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", ctx.Dropped)
	}
}

func TestBuild_HardUpperBound(t *testing.T) {
	items := make([]memory.Item, 50)
	for i := range items {
		items[i] = chatItem(strings.Repeat("x", 40))
	}
	const budget = 500
	ctx := Build(sampleSnapshot(), items, budget)

	size := len(ctx.Snapshot)
	for _, m := range ctx.Memories {
		size += len(m) + 1
	}
	if size > budget {
		t.Errorf("assembled %d bytes over the %d budget", size, budget)
	}
}

// #endregion bound-tests

// #region format-tests
func TestRender_Sections(t *testing.T) {
	ctx := Build(sampleSnapshot(), []memory.Item{chatItem("hi petbot")}, 4096)
	text := ctx.Render()
	if !strings.Contains(text, "=== WORLD ===") || !strings.Contains(text, "=== MEMORY ===") {
		t.Errorf("missing sections in %q", text)
	}
	if !strings.Contains(text, "Steve: hi petbot") {
		t.Errorf("chat line missing in %q", text)
	}
	if !strings.Contains(text, "moving") {
		t.Errorf("move flag missing in %q", text)
	}
}

func TestFormatItem_ArchiveUsesSummary(t *testing.T) {
	it := memory.Item{
		Tier: memory.TierArchive, Kind: memory.KindChat,
		DayBucket: "2026-08-01", Summary: "Steve: found diamonds",
		Content: "full original content that was compacted away",
	}
	line := formatItem(it)
	if line != "[2026-08-01] Steve: found diamonds" {
		t.Errorf("line = %q", line)
	}
}

// #endregion format-tests
