package hub_handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/middleware"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "support-chat",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := h.Hub.GetHubStats()
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket stats", stats, reqID))
	return nil
}

func (h *HubHandler) HandleGetRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	stats := h.Hub.GetRoomStats(roomID)
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket room stats", stats, reqID))
	return nil
}

func (h *HubHandler) HandleGetRoomClients(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	clients := h.Hub.GetRoomClients(roomID)

	type ClientInfo struct {
		ID       string    `json:"id"`
		UserID   string    `json:"user_id"`
		IsAgent  bool      `json:"is_agent"`
		LastSeen time.Time `json:"last_seen"`
	}

	var clientList []ClientInfo
	for _, client := range clients {
		clientList = append(clientList, ClientInfo{
			ID:       client.ID,
			UserID:   client.UserID,
			IsAgent:  client.IsAgent,
			LastSeen: client.GetLastSeen(),
		})
	}

	resp := map[string]any{
		"room_id": roomID,
		"count":   len(clientList),
		"clients": clientList,
	}
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("successfully get rooms client", resp, reqID))
	return nil
}
