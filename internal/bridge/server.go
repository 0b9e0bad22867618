package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"petbridge/internal/memory"
	"petbridge/internal/protocol"
)

// #region server
// Server is the HTTP boundary between the game-side agent and the reasoning
// backend. It owns the command queue, forwards events into the memory store,
// and notifies the backend of chat and results through sinks.
type Server struct {
	queue  *Queue
	store  *memory.Store
	logger *log.Logger
	hub    *observerHub

	// Sinks are backend callbacks; either may be nil.
	chatSink   func(protocol.ChatEvent)
	resultSink func([]protocol.Result)
	trans      Transcript

	mu      sync.Mutex
	current protocol.ContextSnapshot
	hasSnap bool
}

// Transcript records the traffic crossing the bridge. A nil transcript
// disables recording; write failures are logged, never surfaced to peers.
type Transcript interface {
	RecordCommands(cmds []protocol.Command) error
	RecordResults(results []protocol.Result) error
	RecordContext(snap protocol.ContextSnapshot) error
	RecordChat(ev protocol.ChatEvent) error
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Queue      *Queue
	Store      *memory.Store
	Logger     *log.Logger
	ChatSink   func(protocol.ChatEvent)
	ResultSink func([]protocol.Result)
	Transcript Transcript
}

// NewServer builds the bridge server.
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		queue:      cfg.Queue,
		store:      cfg.Store,
		logger:     cfg.Logger,
		hub:        newObserverHub(cfg.Logger),
		chatSink:   cfg.ChatSink,
		resultSink: cfg.ResultSink,
		trans:      cfg.Transcript,
	}
}

// Handler returns the bridge route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /commands", s.handleCommands)
	mux.HandleFunc("POST /results", s.handleResults)
	mux.HandleFunc("POST /context", s.handleContext)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /observe", s.hub.handleObserve)
	return mux
}

// CurrentSnapshot returns the last pushed snapshot, if any.
func (s *Server) CurrentSnapshot() (protocol.ContextSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasSnap
}

// #endregion server

// #region handlers
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleCommands drains the queue: the returned batch is delivered
// at-most-once per id within this session.
func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	cmds := s.queue.Drain()
	if cmds == nil {
		cmds = []protocol.Command{}
	}
	if s.trans != nil && len(cmds) > 0 {
		if err := s.trans.RecordCommands(cmds); err != nil {
			s.logger.Printf("[BRIDGE] transcript write failed: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, cmds)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest)
		return
	}
	results, err := protocol.DecodeResults(raw)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if unmatched := s.queue.Resolve(results); len(unmatched) > 0 {
		s.logger.Printf("[BRIDGE] results for unknown command ids: %v", unmatched)
	}
	for _, res := range results {
		if !res.OK && !protocol.IsKnownCode(res.Error) {
			// Free-text errors are fine; codes must be from the known set.
			s.logger.Printf("[BRIDGE] result %s error: %s", res.ID, res.Error)
		}
	}

	if s.trans != nil {
		if err := s.trans.RecordResults(results); err != nil {
			s.logger.Printf("[BRIDGE] transcript write failed: %v", err)
		}
	}
	if s.resultSink != nil {
		s.resultSink(results)
	}
	s.hub.broadcast("results", results)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest)
		return
	}
	snap, err := protocol.DecodeContext(raw)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.current = snap
	s.hasSnap = true
	s.mu.Unlock()

	// Each push replaces the current snapshot and is also a candidate
	// memory write.
	if _, err := s.store.Insert("bot", memory.KindContext, snapshotContent(snap), time.Now()); err != nil {
		s.logger.Printf("[BRIDGE] context memory write failed: %v", err)
	}
	if err := s.store.Sweep(time.Now()); err != nil {
		s.logger.Printf("[BRIDGE] sweep failed: %v", err)
	}
	if s.trans != nil {
		if err := s.trans.RecordContext(snap); err != nil {
			s.logger.Printf("[BRIDGE] transcript write failed: %v", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest)
		return
	}
	ev, err := protocol.DecodeChat(raw)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := memory.KindChat
	if giftRe.MatchString(ev.Message) {
		kind = memory.KindItemGift
	}
	if _, err := s.store.Insert(ev.Player, kind, ev.Message, time.Now()); err != nil {
		s.logger.Printf("[BRIDGE] chat memory write failed: %v", err)
	}

	if s.trans != nil {
		if err := s.trans.RecordChat(ev); err != nil {
			s.logger.Printf("[BRIDGE] transcript write failed: %v", err)
		}
	}
	if s.chatSink != nil {
		s.chatSink(ev)
	}
	s.hub.broadcast("chat", ev)
	w.WriteHeader(http.StatusNoContent)
}

// #endregion handlers

// #region helpers
// giftRe tags hand-over messages as item gifts so the importance function
// weighs them like the personality engine expects.
var giftRe = regexp.MustCompile(`(?i)\b(?:gave|gives|giving) (?:you|petbot)\b`)

func snapshotContent(snap protocol.ContextSnapshot) string {
	content := fmt.Sprintf("at %.0f,%.0f,%.0f", snap.Position.X, snap.Position.Y, snap.Position.Z)
	if snap.HeldItem != "" {
		content += " holding " + snap.HeldItem
	}
	if snap.MoveActive {
		content += " (moving)"
	}
	return content
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// #endregion helpers
