package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newWSServer upgrades every request and hands the socket to serve. The
// returned URL is ready for Connect.
func newWSServer(t *testing.T, serve func(r *http.Request, ws *websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		serve(r, ws)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// keepOpen blocks until the peer goes away.
func keepOpen(_ *http.Request, ws *websocket.Conn) {
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func waitForEvent(t *testing.T, c *Conn, name string) Event {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "events channel closed while waiting for %q", name)
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", name)
		}
	}
}

func TestConnect_SharedSingleton(t *testing.T) {
	url := newWSServer(t, keepOpen)

	first, err := Connect(Config{URL: url})
	require.NoError(t, err)

	second, err := Connect(Config{URL: url})
	require.NoError(t, err)
	assert.Same(t, first, second, "Connect should hand out the shared connection")

	// Releasing one holder keeps the socket alive for the other.
	require.NoError(t, second.Close())
	assert.NoError(t, first.JoinAdmin(), "connection should survive a partial release")

	require.NoError(t, first.Close())

	// Fully released: the next Connect dials fresh.
	next, err := Connect(Config{URL: url})
	require.NoError(t, err)
	assert.NotSame(t, first, next)
	require.NoError(t, next.Close())
}

func TestClose_AfterFullRelease(t *testing.T) {
	url := newWSServer(t, keepOpen)

	c, err := Connect(Config{URL: url})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.Error(t, c.Close(), "second release of the last reference should fail")
}

func TestConnect_ForwardsAuthHeaders(t *testing.T) {
	headers := make(chan [2]string, 1)
	url := newWSServer(t, func(r *http.Request, ws *websocket.Conn) {
		headers <- [2]string{r.Header.Get("Authorization"), r.Header.Get("X-Device-Fingerprint")}
		keepOpen(r, ws)
	})

	c, err := Connect(Config{URL: url, Token: "tok-123", Fingerprint: "fp-456"})
	require.NoError(t, err)
	defer c.Close()

	got := <-headers
	assert.Equal(t, "Bearer tok-123", got[0])
	assert.Equal(t, "fp-456", got[1])
}

func TestEmit_WireFormat(t *testing.T) {
	frames := make(chan string, 8)
	url := newWSServer(t, func(_ *http.Request, ws *websocket.Conn) {
		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				return
			}
			frames <- string(raw)
		}
	})

	c, err := Connect(Config{URL: url})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendMessage("chat-1", "hello"))
	require.NoError(t, c.JoinAdmin())
	require.NoError(t, c.MarkRead("chat-1"))
	require.NoError(t, c.Typing("chat-1", true))

	assert.JSONEq(t, `{"event":"send-message","data":{"chatId":"chat-1","content":"hello"}}`, <-frames)
	assert.JSONEq(t, `{"event":"join-admin"}`, <-frames)
	assert.JSONEq(t, `{"event":"mark-read","data":{"chatId":"chat-1"}}`, <-frames)
	assert.JSONEq(t, `{"event":"typing","data":{"chatId":"chat-1","isTyping":true}}`, <-frames)
}

func TestEvents_DeliversServerPush(t *testing.T) {
	url := newWSServer(t, func(r *http.Request, ws *websocket.Conn) {
		payload := `{"event":"new-message","data":{"chatId":"chat-9","content":"anyone there?"}}`
		if err := ws.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return
		}
		keepOpen(r, ws)
	})

	c, err := Connect(Config{URL: url})
	require.NoError(t, err)
	defer c.Close()

	ev := waitForEvent(t, c, EventNewMessage)

	var data struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "chat-9", data.ChatID)
	assert.Equal(t, "anyone there?", data.Content)
}

func TestEvents_SkipsMalformedFrames(t *testing.T) {
	url := newWSServer(t, func(r *http.Request, ws *websocket.Conn) {
		ws.WriteMessage(websocket.TextMessage, []byte("not json"))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"user-typing","data":{"chatId":"chat-2"}}`))
		keepOpen(r, ws)
	})

	c, err := Connect(Config{URL: url})
	require.NoError(t, err)
	defer c.Close()

	ev := waitForEvent(t, c, EventUserTyping)
	assert.Equal(t, EventUserTyping, ev.Name)
}

func TestReconnect_EmitsMarkerAndResumes(t *testing.T) {
	var conns atomic.Int32
	url := newWSServer(t, func(r *http.Request, ws *websocket.Conn) {
		if conns.Add(1) == 1 {
			// Drop the first connection right away to force a re-dial.
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"chat-update","data":{"chatId":"chat-3","type":"new_message"}}`))
		keepOpen(r, ws)
	})

	c, err := Connect(Config{URL: url, MaxRetries: 5, BaseDelay: 20 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	waitForEvent(t, c, EventReconnected)

	// Traffic flows again on the replacement socket.
	waitForEvent(t, c, EventChatUpdate)
	assert.NoError(t, c.JoinChat("chat-3"))
}

func TestReconnect_GivesUpAndClosesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c, err := Connect(Config{URL: url, MaxRetries: 2, BaseDelay: 10 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	// Kill the server so every retry fails.
	srv.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return // channel closed, retry budget spent
			}
		case <-deadline:
			t.Fatal("events channel never closed after reconnect budget was spent")
		}
	}
}
