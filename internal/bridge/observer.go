package bridge

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// #region hub
// observerHub streams dispatch results and chat to the desktop shell over
// websocket. Observers are read-only; a slow or dead observer is dropped,
// never allowed to back-pressure the bridge.
type observerHub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan observerEvent
}

type observerEvent struct {
	Type    string `json:"type"` // "results" | "chat"
	Payload any    `json:"payload"`
	Time    string `json:"time"`
}

func newObserverHub(logger *log.Logger) *observerHub {
	return &observerHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Loopback bridge; the shell connects from the same host.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan observerEvent),
	}
}

// #endregion hub

// #region serve
func (h *observerHub) handleObserve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[OBSERVE] upgrade failed: %v", err)
		return
	}

	ch := make(chan observerEvent, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	go h.readLoop(conn)
}

func (h *observerHub) writeLoop(conn *websocket.Conn, ch chan observerEvent) {
	for ev := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop discards inbound frames; its only job is noticing the close.
func (h *observerHub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *observerHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	conn.Close()
}

// #endregion serve

// #region broadcast
func (h *observerHub) broadcast(eventType string, payload any) {
	ev := observerEvent{
		Type:    eventType,
		Payload: payload,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Buffer full: the observer is not keeping up.
			h.logger.Printf("[OBSERVE] dropping slow observer %s", conn.RemoteAddr())
			delete(h.clients, conn)
			close(ch)
			conn.Close()
		}
	}
}

// #endregion broadcast
