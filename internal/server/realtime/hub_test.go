package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat mimics services.ChatService without a database.
type fakeChat struct {
	hub *Hub

	mu    sync.Mutex
	calls []string
}

func (f *fakeChat) Send(ctx context.Context, id auth.Identity, content string) (*services.Outbound, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id.Username+":"+content)
	f.mu.Unlock()

	if content == "" {
		return nil, nil
	}
	out := services.Outbound{Username: id.Username, Content: content, Timestamp: "12:00"}
	f.hub.Broadcast(services.EventMessage, out)
	return &out, nil
}

// withTestIdentity authenticates requests carrying X-Test-User.
func withTestIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := r.Header.Get("X-Test-User"); name != "" {
			r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: int64(len(name)), Username: name}))
		}
		next.ServeHTTP(w, r)
	})
}

func startServer(t *testing.T, chat func(*Hub) ChatSender) (*Hub, string) {
	t.Helper()
	hub := NewHub(logging.Nop())
	h := NewHandler(hub, chat(hub), logging.Nop())

	srv := httptest.NewServer(withTestIdentity(h))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, user string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if user != "" {
		header.Set("X-Test-User", user)
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func sendMessage(t *testing.T, ws *websocket.Conn, content string) {
	t.Helper()
	data, err := json.Marshal(map[string]string{"content": content})
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Frame{Event: EventSendMessage, Data: data}))
}

func readOutbound(t *testing.T, ws *websocket.Conn) (string, services.Outbound) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	var out services.Outbound
	require.NoError(t, json.Unmarshal(f.Data, &out))
	return f.Event, out
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHandler_BroadcastReachesEveryone(t *testing.T) {
	hub, url := startServer(t, func(h *Hub) ChatSender { return &fakeChat{hub: h} })

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	carol := dial(t, url, "carol")
	waitForClients(t, hub, 3)

	sendMessage(t, alice, "hi all")

	for _, ws := range []*websocket.Conn{alice, bob, carol} {
		event, out := readOutbound(t, ws)
		assert.Equal(t, services.EventMessage, event)
		assert.Equal(t, "alice", out.Username)
		assert.Equal(t, "hi all", out.Content)
	}
}

func TestHandler_AnonymousEventsAreDropped(t *testing.T) {
	chat := &fakeChat{}
	hub, url := startServer(t, func(h *Hub) ChatSender { chat.hub = h; return chat })

	anon := dial(t, url, "")
	alice := dial(t, url, "alice")
	waitForClients(t, hub, 2)

	sendMessage(t, anon, "spam")
	// an anonymous client still receives broadcasts
	sendMessage(t, alice, "after")

	_, out := readOutbound(t, anon)
	assert.Equal(t, "after", out.Content)

	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Equal(t, []string{"alice:after"}, chat.calls)
}

func TestHandler_PreservesPerConnectionOrder(t *testing.T) {
	hub, url := startServer(t, func(h *Hub) ChatSender { return &fakeChat{hub: h} })

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	waitForClients(t, hub, 2)

	sendMessage(t, alice, "")
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.WriteJSON(Frame{Event: "typing"}))
	for _, m := range []string{"one", "two", "three"} {
		sendMessage(t, alice, m)
	}

	for _, want := range []string{"one", "two", "three"} {
		_, out := readOutbound(t, bob)
		assert.Equal(t, want, out.Content)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, url := startServer(t, func(h *Hub) ChatSender { return &fakeChat{hub: h} })

	ws := dial(t, url, "alice")
	waitForClients(t, hub, 1)

	require.NoError(t, ws.Close())
	waitForClients(t, hub, 0)
	assert.Equal(t, 0, hub.Broadcast(services.EventMessage, services.Outbound{Content: "nobody"}))
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, url := startServer(t, func(h *Hub) ChatSender { return &fakeChat{hub: h} })

	ws := dial(t, url, "alice")
	waitForClients(t, hub, 1)

	hub.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	// late connections are turned away
	late := dial(t, url, "bob")
	require.NoError(t, late.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_BroadcastUnencodable(t *testing.T) {
	hub := NewHub(logging.Nop())
	assert.Equal(t, 0, hub.Broadcast("x", make(chan int)))
}
