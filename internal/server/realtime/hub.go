package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/gorilla/websocket"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live connections and fans events out to all of them.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	closed bool
	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Connection),
		logger: logger,
	}
}

// Register starts conn and makes it a broadcast target. After Close it
// closes conn instead.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close(websocket.CloseGoingAway, "server shutdown")
		return
	}
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	conn.Start()
}

// Unregister drops conn. Unknown connections are ignored.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	delete(h.conns, conn.ID)
	h.mu.Unlock()
}

// Broadcast encodes payload once and queues it on every connection,
// including the sender's. It returns the number of connections it was
// queued for.
func (h *Hub) Broadcast(event string, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error(context.Background(), "encode broadcast", "event", event, "error", err)
		return 0
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		h.logger.Error(context.Background(), "encode frame", "event", event, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, conn := range h.conns {
		if err := conn.Send(frame); err == nil {
			delivered++
		}
	}
	return delivered
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client and rejects later registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[string]*Connection)
	h.closed = true
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}
