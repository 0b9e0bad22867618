package bridge

import (
	"fmt"
	"sync"
	"testing"

	"petbridge/internal/protocol"
)

// #region queue-tests
func TestQueue_DrainDeliversOnceInOrder(t *testing.T) {
	q := NewQueue()
	if err := q.Enqueue(
		protocol.Command{ID: "a", Action: protocol.ActionJump},
		protocol.Command{ID: "b", Action: protocol.ActionChat},
	); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first := q.Drain()
	if len(first) != 2 || first[0].ID != "a" || first[1].ID != "b" {
		t.Fatalf("drain = %+v", first)
	}
	if second := q.Drain(); len(second) != 0 {
		t.Errorf("second drain delivered commands again: %+v", second)
	}
}

func TestQueue_RejectsReusedIDWhileOutstanding(t *testing.T) {
	q := NewQueue()
	if err := q.Enqueue(protocol.Command{ID: "a", Action: protocol.ActionJump}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(protocol.Command{ID: "a", Action: protocol.ActionUse}); err == nil {
		t.Fatal("duplicate queued id must be rejected")
	}

	q.Drain()
	// Delivered but unresolved: still outstanding, still reserved.
	if err := q.Enqueue(protocol.Command{ID: "a", Action: protocol.ActionUse}); err == nil {
		t.Fatal("outstanding id must be rejected")
	}

	q.Resolve([]protocol.Result{{ID: "a", OK: true}})
	if err := q.Enqueue(protocol.Command{ID: "a", Action: protocol.ActionUse}); err != nil {
		t.Errorf("id should be reusable after its result: %v", err)
	}
}

func TestQueue_RejectsDuplicateIDWithinBatch(t *testing.T) {
	q := NewQueue()
	err := q.Enqueue(
		protocol.Command{ID: "dup", Action: protocol.ActionJump},
		protocol.Command{ID: "dup", Action: protocol.ActionUse},
	)
	if err == nil {
		t.Fatal("batch with a repeated id must be rejected")
	}
	// Rejection is all-or-nothing: nothing from the batch may survive.
	if got := q.Drain(); len(got) != 0 {
		t.Errorf("rejected batch left %d commands queued", len(got))
	}
	if q.Outstanding() != 0 {
		t.Errorf("outstanding = %d", q.Outstanding())
	}
	// The id stays free for a well-formed batch.
	if err := q.Enqueue(protocol.Command{ID: "dup", Action: protocol.ActionJump}); err != nil {
		t.Errorf("id should be usable after the rejected batch: %v", err)
	}
}

func TestQueue_ResolveReportsUnmatched(t *testing.T) {
	q := NewQueue()
	q.Enqueue(protocol.Command{ID: "a", Action: protocol.ActionJump})
	q.Drain()

	unmatched := q.Resolve([]protocol.Result{
		{ID: "a", OK: true},
		{ID: "ghost", OK: false, Error: "bot offline"},
	})
	if len(unmatched) != 1 || unmatched[0] != "ghost" {
		t.Errorf("unmatched = %v", unmatched)
	}
	if q.Outstanding() != 0 {
		t.Errorf("outstanding = %d", q.Outstanding())
	}
}

func TestQueue_ConcurrentEnqueueAndDrain(t *testing.T) {
	q := NewQueue()
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = q.Enqueue(protocol.Command{ID: fmt.Sprintf("c%d", i), Action: protocol.ActionJump})
		}
	}()

	var delivered []protocol.Command
	go func() {
		defer wg.Done()
		for len(delivered) < n {
			delivered = append(delivered, q.Drain()...)
		}
	}()
	wg.Wait()

	seen := make(map[string]bool)
	for _, c := range delivered {
		if seen[c.ID] {
			t.Fatalf("command %s delivered twice", c.ID)
		}
		seen[c.ID] = true
	}
	if len(seen) != n {
		t.Errorf("delivered %d unique commands, want %d", len(seen), n)
	}
}

// #endregion queue-tests
