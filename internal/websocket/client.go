package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16 // 64 KB, chat frames are small
)

// DispatchFunc handles one decoded inbound event for a connection.
type DispatchFunc func(ctx context.Context, c *Client, ev Inbound)

// Client is one live connection: a customer tab or an agent dashboard. The
// rooms set is the connection's presence and is owned by the hub (guarded by
// the hub's mutex); it dies with the connection.
type Client struct {
	ID      string // connection id, not the user id
	UserID  string
	IsAgent bool
	Conn    *websocket.Conn
	Send    chan []byte

	hub      *Hub
	dispatch DispatchFunc
	rooms    map[string]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool
	lastSeen  atomic.Int64
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, isAgent bool) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		IsAgent: isAgent,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		hub:     hub,
		rooms:   make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.lastSeen.Store(time.Now().UnixNano())
	return c
}

// Start launches the read and write pumps. dispatch receives every decoded
// inbound event; decode failures go back to this connection only.
func (c *Client) Start(dispatch DispatchFunc) {
	c.dispatch = dispatch
	go c.writePump()
	go c.readPump()
}

func (c *Client) IsClientActive() bool {
	return !c.closed.Load()
}

func (c *Client) GetLastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// SendEvent pushes one event to this connection only. Used for error events,
// which never fan out past the originating socket.
func (c *Client) SendEvent(ev Outbound) {
	data, err := EncodeOutbound(ev)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to marshal direct event")
		return
	}
	c.enqueue(data, "")
}

// enqueue hands a frame to the write pump without blocking the caller. A full
// buffer means a consumer too slow to keep; the connection is dropped rather
// than applying backpressure to the router.
func (c *Client) enqueue(data []byte, room string) {
	if c.closed.Load() {
		return
	}
	select {
	case c.Send <- data:
	case <-c.ctx.Done():
	default:
		log.Warn().Str("room", room).Str("clientID", c.ID).Msg("ws: slow consumer, dropping connection")
		go c.Close()
	}
}

// Close tears the connection down exactly once and purges room membership.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		c.hub.RemoveClient(c)
	})
}

// writePump: take data from c.Send and send to socket + ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump: decode inbound frames and hand them to the dispatcher; pongs keep
// the connection alive.
func (c *Client) readPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.lastSeen.Store(time.Now().UnixNano())
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}

		c.lastSeen.Store(time.Now().UnixNano())

		ev, err := DecodeInbound(raw)
		if err != nil {
			c.SendEvent(ErrorEvent{Message: err.Error()})
			continue
		}

		c.dispatch(c.ctx, c, ev)
	}
}
