package agent

import (
	"context"
	"log"
	"time"

	"petbridge/internal/bot"
	"petbridge/internal/move"
	"petbridge/internal/protocol"
)

// #region transport
// Transport is the agent's view of the bridge. FetchCommands is
// request/response; the Post calls are fire-and-forget — every failure is
// logged, discarded, and retried on the next natural schedule point.
type Transport interface {
	FetchCommands(ctx context.Context) ([]protocol.Command, error)
	PostResults(ctx context.Context, results []protocol.Result) error
	PostContext(ctx context.Context, snap protocol.ContextSnapshot) error
}

// #endregion transport

// #region scheduler
// Scheduler is the cooperative, single-goroutine tick driver. All mutable
// flags the loop depends on live here; nothing is ambient. An activation
// runs to completion before the next one can start.
type Scheduler struct {
	transport  Transport
	dispatcher *Dispatcher
	move       *move.State
	bot        bot.Bot
	logger     *log.Logger

	contextEvery   int
	contextCounter int
	callTimeout    time.Duration
}

// SchedulerConfig tunes the tick loop.
type SchedulerConfig struct {
	ContextEveryTicks int           // push a snapshot every Nth activation
	CallTimeout       time.Duration // bound on each bridge call
}

// NewScheduler wires the loop. The bridge may be absent at boot and at any
// later point; the loop never stalls on it.
func NewScheduler(t Transport, d *Dispatcher, m *move.State, b bot.Bot, cfg SchedulerConfig, logger *log.Logger) *Scheduler {
	if cfg.ContextEveryTicks <= 0 {
		cfg.ContextEveryTicks = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 400 * time.Millisecond
	}
	return &Scheduler{
		transport:    t,
		dispatcher:   d,
		move:         m,
		bot:          b,
		logger:       logger,
		contextEvery: cfg.ContextEveryTicks,
		callTimeout:  cfg.CallTimeout,
	}
}

// Run drives Tick at the fixed interval until ctx is canceled. Activations
// never overlap: the ticker drops signals while Tick runs.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick is one activation: fetch+dispatch, advance movement, then every Nth
// activation build and push a context snapshot.
func (s *Scheduler) Tick() {
	s.fetchAndDispatch()
	s.advanceMovement()

	s.contextCounter++
	if s.contextCounter%s.contextEvery == 0 {
		s.pushContext()
	}
}

// #endregion scheduler

// #region phases
// fetchAndDispatch is best-effort: a transport fault skips silently and the
// fixed tick interval is the whole retry policy — no backoff, no escalation.
func (s *Scheduler) fetchAndDispatch() {
	defer s.recoverPhase("fetch")

	ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
	defer cancel()

	cmds, err := s.transport.FetchCommands(ctx)
	if err != nil {
		return // bridge absent or slow; next tick retries
	}
	if len(cmds) == 0 {
		return
	}

	results := s.dispatcher.Dispatch(cmds)

	postCtx, postCancel := context.WithTimeout(context.Background(), s.callTimeout)
	defer postCancel()
	if err := s.transport.PostResults(postCtx, results); err != nil {
		s.logger.Printf("[TICK] post results failed, %d results lost: %v", len(results), err)
	}
}

func (s *Scheduler) advanceMovement() {
	defer s.recoverPhase("move")
	if s.move.Tick() {
		// Motion-stop on computed completion; an offline bot only costs
		// the stop call, the state machine is already idle.
		if err := s.bot.StopMove(); err != nil {
			s.logger.Printf("[TICK] motion stop failed: %v", err)
		}
	}
}

func (s *Scheduler) pushContext() {
	defer s.recoverPhase("context")

	snap, err := s.bot.Snapshot()
	if err != nil {
		return // no entity, nothing to observe
	}
	snap.MoveActive = s.move.Active()
	snap.Time = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
	defer cancel()
	if err := s.transport.PostContext(ctx, snap); err != nil {
		s.logger.Printf("[TICK] context push failed: %v", err)
	}
}

// recoverPhase turns any fault inside a tick phase into "no-op, retry next
// tick". No fault here is fatal to the process.
func (s *Scheduler) recoverPhase(phase string) {
	if r := recover(); r != nil {
		s.logger.Printf("[TICK] %s phase panic: %v", phase, r)
	}
}

// #endregion phases
