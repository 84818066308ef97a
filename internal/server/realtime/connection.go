// Package realtime is the websocket side of the chat: a Hub that fans events
// out to every connected client and an HTTP handler that reads inbound
// events from one client at a time.
package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 16 << 10
	sendBufferSize = 128
)

var (
	errConnClosed   = errors.New("connection closed")
	errSendOverflow = errors.New("connection buffer exceeded")
)

// Connection wraps a websocket and serializes outbound writes through a
// buffered channel drained by one writer goroutine. Send and Close are safe
// for concurrent use.
type Connection struct {
	ID string

	identity  auth.Identity
	anonymous bool

	ws   *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

// NewConnection wraps ws for a caller that may be anonymous (ok == false).
func NewConnection(ws *websocket.Conn, identity auth.Identity, ok bool) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		identity:  identity,
		anonymous: !ok,
		ws:        ws,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Identity returns the bound user; ok is false for anonymous connections.
func (c *Connection) Identity() (auth.Identity, bool) {
	return c.identity, !c.anonymous
}

// Start launches the write loop. It must be called exactly once.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload without blocking. A client whose buffer is full is
// too slow to keep up and gets disconnected.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		go c.Close(websocket.CloseTryAgainLater, "send buffer full")
		return errSendOverflow
	}
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the socket down. Only the first call
// has an effect.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
