// Package client is the Go-side session façade for the support chat service.
// It keeps one shared websocket connection per process, re-dials with bounded
// backoff when the link drops, and exposes a typed emit surface over the wire
// envelope. After a reconnect callers must re-issue their joins and re-fetch
// the chat snapshot over HTTP; nothing is buffered across disconnects.
package client

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event names mirrored from the server wire vocabulary.
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventJoinAdmin   = "join-admin"
	EventSendMessage = "send-message"
	EventMarkRead    = "mark-read"
	EventTyping      = "typing"

	EventNewMessage   = "new-message"
	EventMessagesRead = "messages-read"
	EventChatUpdate   = "chat-update"
	EventUserTyping   = "user-typing"
	EventError        = "error"

	// EventReconnected is synthesized locally when the façade re-established
	// the link. Room memberships are gone at that point; re-join and re-fetch.
	EventReconnected = "reconnected"
)

type Event struct {
	Name string              `json:"event"`
	Data jsoniter.RawMessage `json:"data,omitempty"`
}

type Config struct {
	// URL of the ws endpoint, e.g. wss://shop.example/ws
	URL         string
	Token       string
	Fingerprint string

	// Reconnect bounds. Zero values fall back to 5 attempts / 500ms base.
	MaxRetries int
	BaseDelay  time.Duration
}

type Conn struct {
	cfg Config

	mu     sync.Mutex // guards ws writes and reconnect swaps
	ws     *websocket.Conn
	events chan Event

	closeOnce sync.Once
	done      chan struct{}
}

var (
	connMu   sync.Mutex
	shared   *Conn
	sharedRc int
)

// Connect returns the process-wide shared connection, dialing on first use.
// Every Connect must be paired with a Close; the socket goes away when the
// last holder releases it.
func Connect(cfg Config) (*Conn, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if shared != nil {
		sharedRc++
		return shared, nil
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}

	c := &Conn{
		cfg:    cfg,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	ws, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	c.ws = ws

	go c.readLoop()

	shared = c
	sharedRc = 1
	return c, nil
}

func dial(cfg Config) (*websocket.Conn, error) {
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}
	if cfg.Fingerprint != "" {
		header.Set("X-Device-Fingerprint", cfg.Fingerprint)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	return ws, nil
}

// Events delivers everything the server pushes, plus the synthetic
// "reconnected" marker. The channel closes when the connection is gone for
// good (Close, or reconnect attempts exhausted).
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Close releases one reference; the underlying socket closes with the last
// one.
func (c *Conn) Close() error {
	connMu.Lock()
	defer connMu.Unlock()

	if shared != c {
		return errors.New("connection already released")
	}

	sharedRc--
	if sharedRc > 0 {
		return nil
	}

	shared = nil
	c.shutdown()
	return nil
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.ws != nil {
			c.ws.Close()
		}
		c.mu.Unlock()
	})
}

func (c *Conn) readLoop() {
	defer close(c.events)

	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()

		_, raw, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			if !c.reconnect() {
				return
			}
			continue
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Warn().Err(err).Msg("client: dropping malformed frame")
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// reconnect re-dials with exponential backoff. Returns false once the retry
// budget is spent or the connection was closed meanwhile.
func (c *Conn) reconnect() bool {
	delay := c.cfg.BaseDelay

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ws, err := dial(c.cfg)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("client: reconnect failed")
			delay *= 2
			continue
		}

		c.mu.Lock()
		if c.ws != nil {
			c.ws.Close()
		}
		c.ws = ws
		c.mu.Unlock()

		select {
		case c.events <- Event{Name: EventReconnected}:
		case <-c.done:
			return false
		}
		return true
	}

	log.Error().Int("attempts", c.cfg.MaxRetries).Msg("client: reconnect budget exhausted")
	return false
}

func (c *Conn) emit(event string, data any) error {
	env := Event{Name: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		env.Data = raw
	}

	frame, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func (c *Conn) JoinChat(chatID string) error {
	return c.emit(EventJoinChat, map[string]string{"chatId": chatID})
}

func (c *Conn) LeaveChat(chatID string) error {
	return c.emit(EventLeaveChat, map[string]string{"chatId": chatID})
}

func (c *Conn) JoinAdmin() error {
	return c.emit(EventJoinAdmin, nil)
}

func (c *Conn) SendMessage(chatID, content string) error {
	return c.emit(EventSendMessage, map[string]string{"chatId": chatID, "content": content})
}

func (c *Conn) MarkRead(chatID string) error {
	return c.emit(EventMarkRead, map[string]string{"chatId": chatID})
}

func (c *Conn) Typing(chatID string, isTyping bool) error {
	return c.emit(EventTyping, map[string]any{"chatId": chatID, "isTyping": isTyping})
}
