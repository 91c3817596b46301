package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/middleware"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/state"
)

func NewRouter(state *state.AppState, hub *websocket.Hub, wsHandler *websocket.WebSocketHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)
	r.Use(middleware.GetDeviceFingerprint)

	ChatRouter(r, state, hub)
	HubRouter(r, hub)

	// single upgrade endpoint, rooms are joined via events afterwards
	r.Get("/ws", wsHandler.HandleWS)

	return r
}
