package backend

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"petbridge/internal/bridge"
	"petbridge/internal/memory"
	"petbridge/internal/protocol"
)

func newTestBackend(t *testing.T, ask Asker) (*Backend, *bridge.Queue, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(filepath.Join(t.TempDir(), "mem.db"), memory.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	q := bridge.NewQueue()
	snap := func() (protocol.ContextSnapshot, bool) {
		return protocol.ContextSnapshot{Position: protocol.Vec3{X: 1, Y: 64, Z: 2}, HeldItem: "bone"}, true
	}
	b := New(q, store, snap, ask, log.New(io.Discard, "", 0), Config{BotName: "PetBot"})
	return b, q, store
}

func drainAll(t *testing.T, q *bridge.Queue) []protocol.Command {
	t.Helper()
	return q.Drain()
}

func TestOnChat_DirectPhraseSkipsModel(t *testing.T) {
	called := false
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		called = true
		return "", nil
	})
	b, q, _ := newTestBackend(t, ask)

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "Steve", Message: "go forward"})

	if called {
		t.Error("model was consulted for a direct phrase")
	}
	cmds := drainAll(t, q)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionMove || cmds[0].ID == "" {
		t.Fatalf("queued = %+v", cmds)
	}
}

func TestOnChat_ModelReplyEnqueued(t *testing.T) {
	var gotUser string
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		gotUser = user
		return `[{"action":"chat","params":{"message":"hi Steve!"}},{"action":"jump","params":{}}]`, nil
	})
	b, q, _ := newTestBackend(t, ask)

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "Steve", Message: "say hello and hop"})

	cmds := drainAll(t, q)
	if len(cmds) != 2 || cmds[0].Action != protocol.ActionChat || cmds[1].Action != protocol.ActionJump {
		t.Fatalf("queued = %+v", cmds)
	}
	if cmds[0].ID == cmds[1].ID {
		t.Error("commands share an id")
	}
	if !strings.Contains(gotUser, "Steve said: say hello and hop") {
		t.Errorf("prompt missing chat line: %q", gotUser)
	}
	if !strings.Contains(gotUser, "=== WORLD ===") {
		t.Errorf("prompt missing world section: %q", gotUser)
	}
}

func TestOnChat_PromptCarriesMemories(t *testing.T) {
	var gotUser string
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		gotUser = user
		return `[{"action":"jump","params":{}}]`, nil
	})
	b, _, store := newTestBackend(t, ask)
	if _, err := store.Insert("Steve", memory.KindChat, "I love diamonds", time.Now()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "Steve", Message: "remember what I love?"})

	if !strings.Contains(gotUser, "I love diamonds") {
		t.Errorf("retrieved memory missing from prompt: %q", gotUser)
	}
}

func TestOnChat_ProseFallbackBecomesChat(t *testing.T) {
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		return "I am just going to *wag my tail* happily!", nil
	})
	b, q, _ := newTestBackend(t, ask)

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "Steve", Message: "how are you?"})

	cmds := drainAll(t, q)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionChat {
		t.Fatalf("queued = %+v", cmds)
	}
	if strings.Contains(cmds[0].Params["message"], "*") {
		t.Errorf("markdown survived fallback: %q", cmds[0].Params["message"])
	}
}

func TestOnChat_IgnoresOwnChat(t *testing.T) {
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		t.Error("model consulted for the bot's own chat")
		return "", nil
	})
	b, q, _ := newTestBackend(t, ask)

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "petbot", Message: "go forward"})

	if cmds := drainAll(t, q); len(cmds) != 0 {
		t.Errorf("queued = %+v", cmds)
	}
}

func TestOnChat_AskErrorQueuesNothing(t *testing.T) {
	ask := AskerFunc(func(ctx context.Context, system, user string) (string, error) {
		return "", context.DeadlineExceeded
	})
	b, q, _ := newTestBackend(t, ask)

	b.OnChat(context.Background(), protocol.ChatEvent{Player: "Steve", Message: "anything there?"})

	if cmds := drainAll(t, q); len(cmds) != 0 {
		t.Errorf("queued = %+v", cmds)
	}
}

func TestOnResults_FailureBecomesSystemMemory(t *testing.T) {
	b, _, store := newTestBackend(t, nil)

	b.OnResults([]protocol.Result{
		{ID: "a", OK: true},
		{ID: "b", OK: false, Error: "bot offline"},
	})

	items, err := store.Tier(memory.TierRecent)
	if err != nil {
		t.Fatalf("tier: %v", err)
	}
	if len(items) != 1 || items[0].Kind != memory.KindSystem {
		t.Fatalf("items = %+v", items)
	}
	if !strings.Contains(items[0].Content, "bot offline") {
		t.Errorf("content = %q", items[0].Content)
	}
}
