package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers"
	chat_handler "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers/chat-handler"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/middleware"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/state"
)

func ChatRouter(r chi.Router, state *state.AppState, hub *websocket.Hub) {
	chatHandler := chat_handler.NewChatHandler(state, hub)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(state.JwtSecret.Public))

		// customer side
		protected.Post("/api/v1/chats", handlers.WrapHandler(chatHandler.OpenChat))
		protected.Get("/api/v1/chats/{chatId}", handlers.WrapHandler(chatHandler.GetChat))

		// agent side
		protected.Group(func(agents chi.Router) {
			agents.Use(middleware.RequireAgent)
			agents.Get("/api/v1/chats", handlers.WrapHandler(chatHandler.ListChats))
			agents.Patch("/api/v1/chats/{chatId}/status", handlers.WrapHandler(chatHandler.UpdateChatStatus))
			agents.Delete("/api/v1/chats/{chatId}", handlers.WrapHandler(chatHandler.DeleteChat))
		})
	})
}
