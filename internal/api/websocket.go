package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/galaxyblaster/internal/session"
)

const (
	// MaxWSConnections caps concurrent HUD viewers.
	MaxWSConnections = 200
	writeWait        = 2 * time.Second
)

// Message is the envelope of every websocket push.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans session HUD updates out to websocket viewers.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	sessions *session.Registry
	upgrader websocket.Upgrader
	log      *log.Logger

	// OnCount, if set, receives the viewer count after every change.
	OnCount func(n int)
	// OnReject, if set, is called when a viewer is refused.
	OnReject func(reason string)
}

// NewHub creates a hub for reg. checkOrigin may be nil to accept same-host
// origins only.
func NewHub(reg *session.Registry, checkOrigin func(r *http.Request) bool, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:  make(map[*websocket.Conn]struct{}),
		sessions: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: logger,
	}
}

// Run forwards registry broadcasts until ctx is done, then closes all viewers.
func (h *Hub) Run(ctx context.Context) {
	updates, cancel := h.sessions.Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case info, ok := <-updates:
			if !ok {
				return
			}
			h.broadcast(Message{Event: "session:hud", Data: info})
		}
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("dropping websocket viewer", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
	h.countChanged(len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
	h.countChanged(0)
}

func (h *Hub) countChanged(n int) {
	if h.OnCount != nil {
		h.OnCount(n)
	}
}

func (h *Hub) reject(reason string) {
	if h.OnReject != nil {
		h.OnReject(reason)
	}
}

// HandleWebSocket upgrades the request, sends the current session list and
// then streams HUD updates until the viewer disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= MaxWSConnections {
		h.reject("ws_limit")
		writeError(w, "too many viewers", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	h.mu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Event: "sessions", Data: h.sessions.List()}); err != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	h.countChanged(len(h.clients))
	h.mu.Unlock()

	// Viewers never send anything; reading detects the close.
	go func() {
		defer func() {
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				h.countChanged(len(h.clients))
			}
			h.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
