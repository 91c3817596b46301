package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: tighten the origin check before exposing this outside the shop's
	// own domains
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RateLimitConfig struct {
	Enabled          bool
	ConnectionsPerIP int
	WindowSize       time.Duration
}

type RateLimiter struct {
	connections map[string]int
	mu          sync.RWMutex
}

// WebSocketHandler owns the single well-known upgrade endpoint all event
// kinds share. One connection per browser tab; rooms are joined afterwards
// through events, never through the URL.
type WebSocketHandler struct {
	hub           *Hub
	router        *Router
	authenticator AuthenticatorFunc

	MaxConnections int64
	RateLimit      RateLimitConfig

	connCount     atomic.Int64
	rateLimiters  map[string]*RateLimiter
	rateLimiterMu sync.RWMutex
}

func NewWebSocketHandler(hub *Hub, router *Router, authFunc AuthenticatorFunc) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		router:         router,
		authenticator:  authFunc,
		MaxConnections: 10000,
		RateLimit: RateLimitConfig{
			Enabled:          true,
			ConnectionsPerIP: 20,
			WindowSize:       time.Minute,
		},
		rateLimiters: make(map[string]*RateLimiter),
	}
}

// HandleWS authenticates, upgrades, and starts the connection pumps. An
// unauthenticated request is rejected before any room membership exists.
func (h *WebSocketHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	actor, err := h.authenticateConnection(r)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws: rejected unauthenticated upgrade")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if h.connCount.Load() >= h.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	clientIP := h.getClientIP(r)
	if !h.checkRateLimit(clientIP) {
		http.Error(w, "connection limit reached", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	h.connCount.Add(1)
	h.updateConnectionCount(clientIP, 1)

	client := NewClient(h.hub, conn, actor.ID, actor.IsAgent)
	h.hub.Track(client)
	client.Start(h.router.Dispatch)

	go func() {
		<-client.ctx.Done()
		h.connCount.Add(-1)
		h.updateConnectionCount(clientIP, -1)
	}()

	log.Info().Str("clientID", client.ID).Str("userID", actor.ID).Bool("isAgent", actor.IsAgent).Msg("ws: connection established")
}

// StartCleanup periodically prunes idle rate limiter entries.
func (h *WebSocketHandler) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.cleanupRateLimiters()
		}
	}
}
