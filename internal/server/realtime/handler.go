package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gorilla/websocket"
)

// EventSendMessage is the inbound event that posts a chat message.
const EventSendMessage = "send_message"

// ChatSender persists and broadcasts a chat message.
type ChatSender interface {
	Send(ctx context.Context, id auth.Identity, content string) (*services.Outbound, error)
}

type sendMessageData struct {
	Content string `json:"content"`
}

// Handler upgrades requests to websockets. Anyone may connect; inbound
// events from anonymous connections are dropped.
type Handler struct {
	hub      *Hub
	chat     ChatSender
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, chat ChatSender, logger logging.Logger) *Handler {
	return &Handler{
		hub:    hub,
		chat:   chat,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Debug(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	identity, ok := auth.FromContext(r.Context())
	conn := NewConnection(ws, identity, ok)
	h.hub.Register(conn)
	h.logger.Debug(r.Context(), "client connected", "conn_id", conn.ID, "user", identity.Username, "anonymous", !ok)

	defer func() {
		h.hub.Unregister(conn)
		conn.Close(websocket.CloseNormalClosure, "")
		h.logger.Debug(r.Context(), "client disconnected", "conn_id", conn.ID)
	}()

	h.readLoop(r.Context(), conn)
}

// readLoop handles one frame at a time, so a client's events are processed
// in arrival order.
func (h *Handler) readLoop(ctx context.Context, conn *Connection) {
	ws := conn.ws
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Debug(ctx, "websocket read error", "conn_id", conn.ID, "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		h.dispatch(ctx, conn, payload)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *Connection, payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		h.logger.Debug(ctx, "malformed frame dropped", "conn_id", conn.ID, "error", err)
		return
	}

	switch frame.Event {
	case EventSendMessage:
		identity, ok := conn.Identity()
		if !ok {
			return
		}
		var data sendMessageData
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				h.logger.Debug(ctx, "malformed send_message dropped", "conn_id", conn.ID, "error", err)
				return
			}
		}
		if _, err := h.chat.Send(ctx, identity, data.Content); err != nil {
			h.logger.Warn(ctx, "send_message failed", "conn_id", conn.ID, "user", identity.Username, "error", err)
		}
	default:
		h.logger.Debug(ctx, "unknown event dropped", "conn_id", conn.ID, "event", frame.Event)
	}
}
