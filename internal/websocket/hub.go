package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hub is the room registry: room name -> member set, plus the reverse set of
// rooms each client has joined (kept for teardown). Membership is ephemeral
// fan-out state only; nothing here is persisted.
type Hub struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	// Hub lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	stats   HubStats
	statsMu sync.RWMutex

	// Cleanup
	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalRooms       int       `json:"total_rooms"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	EventsSent       int64     `json:"events_sent"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		ctx:    ctx,
		cancel: cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	go hub.cleanupRoutine()

	return hub
}

// Track counts a new connection. Room membership comes later, through Join.
func (h *Hub) Track(client *Client) {
	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})
}

// Join adds a client to a room. Joining a room twice is a no-op.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
	size := len(h.rooms[room])
	h.mu.Unlock()

	log.Info().Str("room", room).Str("clientID", client.ID).Str("userID", client.UserID).Int("roomSize", size).Msg("ws: client joined room")
}

// Leave removes a client from a room; absent membership is not an error.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	h.leaveLocked(client, room)
	h.mu.Unlock()

	log.Info().Str("room", room).Str("clientID", client.ID).Msg("ws: client left room")
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// RemoveClient purges the connection from every room it had joined. Called on
// teardown, graceful or abrupt.
func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	h.mu.Unlock()

	log.Info().Str("clientID", client.ID).Str("userID", client.UserID).Msg("ws: client removed from all rooms")
}

// Rooms returns the rooms the client currently has joined.
func (h *Hub) Rooms(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Broadcast delivers one event to every member of the room. Enqueue order per
// member matches call order, so two broadcasts for the same room arrive at
// each member in the order they were issued here.
func (h *Hub) Broadcast(room string, ev Outbound) {
	h.broadcast(room, ev, nil)
}

// BroadcastExcept is Broadcast minus one connection (typing indicators never
// echo back to the sender).
func (h *Hub) BroadcastExcept(room string, ev Outbound, except *Client) {
	h.broadcast(room, ev, except)
}

func (h *Hub) broadcast(room string, ev Outbound, except *Client) {
	data, err := EncodeOutbound(ev)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("ws: failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	var targets []*Client
	if members, ok := h.rooms[room]; ok {
		targets = make([]*Client, 0, len(members))
		for client := range members {
			if except != nil && client == except {
				continue
			}
			if client.IsClientActive() {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		client.enqueue(data, room)
	}

	h.updateStats(func(stats *HubStats) {
		stats.EventsSent += int64(len(targets))
	})

	log.Debug().Str("room", room).Int("targets", len(targets)).Str("event", ev.EventName()).Msg("ws: broadcast completed")
}

// Utility methods

// GetRoomClients return all active clients in a room
func (h *Hub) GetRoomClients(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	if members, ok := h.rooms[room]; ok {
		for client := range members {
			if client.IsClientActive() {
				clients = append(clients, client)
			}
		}
	}

	return clients
}

// GetRoomStats returns statistics for a room
func (h *Hub) GetRoomStats(room string) map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]interface{}{
		"room":   room,
		"exists": false,
	}

	if members, ok := h.rooms[room]; ok {
		activeClients := 0
		uniqueUsers := make(map[string]bool)

		for client := range members {
			if client.IsClientActive() {
				activeClients++
				uniqueUsers[client.UserID] = true
			}
		}

		stats["exists"] = true
		stats["total_connections"] = len(members)
		stats["active_connections"] = activeClients
		stats["unique_users"] = len(uniqueUsers)
	}

	return stats
}

// GetHubStats returns overall hub statistics
func (h *Hub) GetHubStats() HubStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	h.mu.RLock()
	h.stats.TotalRooms = len(h.rooms)

	seen := make(map[*Client]struct{})
	for _, members := range h.rooms {
		for client := range members {
			if client.IsClientActive() {
				seen[client] = struct{}{}
			}
		}
	}
	h.stats.TotalClients = len(seen)
	h.mu.RUnlock()

	return h.stats
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) performCleanup() {
	now := time.Now()
	inactiveThreshold := 2 * time.Minute

	var toRemove []*Client

	h.mu.RLock()
	for _, members := range h.rooms {
		for client := range members {
			if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
				toRemove = append(toRemove, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range toRemove {
		log.Info().
			Str("clientID", client.ID).
			Msg("ws: cleaning up inactive client")
		client.Close()
	}

	log.Debug().Int("cleaned", len(toRemove)).Msg("ws: cleanup routine completed")
}

// Close gracefully shuts down the hub
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.mu.RLock()
	seen := make(map[*Client]struct{})
	for _, members := range h.rooms {
		for client := range members {
			seen[client] = struct{}{}
		}
	}
	allClients := make([]*Client, 0, len(seen))
	for client := range seen {
		allClients = append(allClients, client)
	}
	h.mu.RUnlock()

	for _, client := range allClients {
		client.Close()
	}

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}
