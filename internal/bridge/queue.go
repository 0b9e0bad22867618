package bridge

import (
	"fmt"
	"sync"

	"petbridge/internal/protocol"
)

// #region queue
// Queue is the bridge-side command buffer. A single lock covers enqueue from
// the reasoning backend and drain from the fetch handler, so no command is
// delivered twice nor dropped. Delivery is at-most-once per id within a
// session: a drained id stays outstanding until its Result arrives.
type Queue struct {
	mu          sync.Mutex
	pending     []protocol.Command
	queued      map[string]struct{} // ids waiting for delivery
	outstanding map[string]struct{} // ids delivered, awaiting a Result
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		queued:      make(map[string]struct{}),
		outstanding: make(map[string]struct{}),
	}
}

// Enqueue appends commands in order. An id already queued or outstanding
// rejects the whole batch: ids must never be reused while a Result is
// outstanding.
func (q *Queue) Enqueue(cmds ...protocol.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	seen := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		if c.ID == "" {
			return fmt.Errorf("command without id (action %s)", c.Action)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("command id %s duplicated in batch", c.ID)
		}
		if _, ok := q.queued[c.ID]; ok {
			return fmt.Errorf("command id %s already queued", c.ID)
		}
		if _, ok := q.outstanding[c.ID]; ok {
			return fmt.Errorf("command id %s still outstanding", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for _, c := range cmds {
		q.queued[c.ID] = struct{}{}
		q.pending = append(q.pending, c)
	}
	return nil
}

// Drain returns the queued, undelivered commands in order and marks them
// delivered. A second Drain returns nothing until new commands arrive.
func (q *Queue) Drain() []protocol.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	for _, c := range out {
		delete(q.queued, c.ID)
		q.outstanding[c.ID] = struct{}{}
	}
	return out
}

// Resolve settles delivered commands against their results. Unmatched result
// ids are returned for logging; they do not fail the batch.
func (q *Queue) Resolve(results []protocol.Result) (unmatched []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, r := range results {
		if _, ok := q.outstanding[r.ID]; ok {
			delete(q.outstanding, r.ID)
		} else {
			unmatched = append(unmatched, r.ID)
		}
	}
	return unmatched
}

// Len reports queued (undelivered) commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Outstanding reports delivered commands still awaiting results.
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.outstanding)
}

// #endregion queue
