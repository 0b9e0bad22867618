package backend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"petbridge/internal/assemble"
	"petbridge/internal/bridge"
	"petbridge/internal/memory"
	"petbridge/internal/protocol"
)

// #region asker
// Asker is the opaque reasoning model. Implementations take a system prompt
// plus the user turn and return raw text; everything downstream assumes the
// text may be malformed.
type Asker interface {
	Ask(ctx context.Context, system, user string) (string, error)
}

// AskerFunc adapts a plain function to Asker.
type AskerFunc func(ctx context.Context, system, user string) (string, error)

func (f AskerFunc) Ask(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// #endregion asker

// #region backend
const defaultSystemPrompt = `You are PetBot, a small pet companion in Minecraft.
Reply with ONLY a JSON array of commands, nothing else. Each command is
{"action":"<name>","params":{...}}. Known actions: move(direction,distance),
stop, jump, sneak(state), sprint(state), look(yaw,pitch), turn(degrees),
hotbar(slot), use, attack, drop, sit, chat(message), mine(x,y,z),
place(x,y,z,block), interact(x,y,z).
Keep chat messages under 80 characters.
Example: [{"action":"chat","params":{"message":"Hi!"}}]`

// Config carries the knobs the reasoning loop needs; zero values fall back
// to workable defaults.
type Config struct {
	BotName        string
	SystemPrompt   string
	RetrieveBudget int
	AssembleMax    int
	AskTimeout     time.Duration
}

// Backend is the reasoning side of the bridge: it turns player chat into
// queued commands. Obvious phrases short-circuit through the pre-classifier;
// everything else goes through retrieve → assemble → ask → parse → enqueue.
type Backend struct {
	queue  *bridge.Queue
	store  *memory.Store
	snap   func() (protocol.ContextSnapshot, bool)
	ask    Asker
	logger *log.Logger
	cfg    Config
}

func New(q *bridge.Queue, store *memory.Store, snap func() (protocol.ContextSnapshot, bool), ask Asker, logger *log.Logger, cfg Config) *Backend {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.RetrieveBudget <= 0 {
		cfg.RetrieveBudget = 2048
	}
	if cfg.AssembleMax <= 0 {
		cfg.AssembleMax = 4096
	}
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = 30 * time.Second
	}
	return &Backend{queue: q, store: store, snap: snap, ask: ask, logger: logger, cfg: cfg}
}

// OnChat handles one inbound player chat event end to end.
func (b *Backend) OnChat(ctx context.Context, ev protocol.ChatEvent) {
	if strings.EqualFold(ev.Player, b.cfg.BotName) {
		return // never react to our own chat lines
	}

	if cmd, ok := ClassifyDirect(ev.Message); ok {
		b.logger.Printf("[BACKEND] direct %s from %q", cmd.Action, ev.Message)
		b.enqueue(cmd)
		return
	}

	if b.ask == nil {
		b.logger.Printf("[BACKEND] no model configured, dropping chat from %s", ev.Player)
		return
	}

	askCtx, cancel := context.WithTimeout(ctx, b.cfg.AskTimeout)
	defer cancel()

	reply, err := b.ask.Ask(askCtx, b.cfg.SystemPrompt, b.buildPrompt(ev))
	if err != nil {
		b.logger.Printf("[BACKEND] ask failed: %v", err)
		return
	}

	cmds := ExtractCommands(reply)
	if len(cmds) == 0 {
		// Salvage unparseable prose as a plain chat line.
		if msg := FallbackChat(reply); msg != "" {
			cmds = []protocol.Command{{Action: protocol.ActionChat, Params: map[string]string{"message": msg}}}
		} else {
			b.logger.Printf("[BACKEND] nothing usable in model reply (%d bytes)", len(reply))
			return
		}
	}
	b.enqueue(cmds...)
}

// buildPrompt assembles world state and retrieved memories around the chat
// line. Retrieval keys on the speaking player so one player's chat history
// never leaks into another's prompt.
func (b *Backend) buildPrompt(ev protocol.ChatEvent) string {
	snap, _ := b.snap()
	items, err := b.store.Retrieve(ev.Player, ev.Message, b.cfg.RetrieveBudget)
	if err != nil {
		b.logger.Printf("[BACKEND] retrieve failed: %v", err)
	}
	assembled := assemble.Build(snap, items, b.cfg.AssembleMax)
	if assembled.Dropped > 0 {
		b.logger.Printf("[BACKEND] prompt budget dropped %d memories", assembled.Dropped)
	}
	return fmt.Sprintf("%s\n%s said: %s", assembled.Render(), ev.Player, ev.Message)
}

// OnResults records failed command outcomes as system memories, so the next
// prompt can see what just went wrong.
func (b *Backend) OnResults(results []protocol.Result) {
	for _, r := range results {
		if r.OK {
			continue
		}
		b.logger.Printf("[BACKEND] command %s failed: %s", r.ID, r.Error)
		content := fmt.Sprintf("command failed: %s", r.Error)
		if _, err := b.store.Insert(b.cfg.BotName, memory.KindSystem, content, time.Now()); err != nil {
			b.logger.Printf("[BACKEND] failure memory write failed: %v", err)
		}
	}
}

func (b *Backend) enqueue(cmds ...protocol.Command) {
	for i := range cmds {
		cmds[i].ID = uuid.NewString()
	}
	if err := b.queue.Enqueue(cmds...); err != nil {
		b.logger.Printf("[BACKEND] enqueue failed: %v", err)
		return
	}
	for _, c := range cmds {
		b.logger.Printf("[BACKEND] queued %s %s", c.Action, c.ID)
	}
}

// #endregion backend
