package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers"
	hub_handler "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers/hub-handler"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
)

func HubRouter(r chi.Router, wsHub *websocket.Hub) {
	hubHandler := hub_handler.NewHubHandler(wsHub)
	r.Route("/api/v1", func(r chi.Router) {
		// Health stats
		r.Get("/health", hubHandler.HandleHealth)
		r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))

		// Room routes
		r.Route("/rooms/{roomId}", func(r chi.Router) {
			r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
			r.Get("/clients", handlers.WrapHandler(hubHandler.HandleGetRoomClients))
		})
	})
}
