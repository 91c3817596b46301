package chat_handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/handlers"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/middleware"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
	chat_service "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/use-case/chat-case"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/websocket"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/state"
)

type ChatHandler struct {
	State    *state.AppState
	Producer queue.Producer
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
	Hub      *websocket.Hub
}

func NewChatHandler(state *state.AppState, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{
		State:    state,
		Producer: queue.NewProducer(state.Redis),
		Validate: validator.New(),
		Service:  chat_service.NewChatService(state),
		Hub:      hub,
	}
}

// OpenChat returns the caller's active chat, creating one when none exists.
// New chats wake up the admin dashboards and the alert worker.
func (h *ChatHandler) OpenChat(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.OpenChatRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return app_error.NewAppError(http.StatusUnauthorized, "user id is not found in context", "context")
	}

	resp, created, err := h.Service.OpenChat(r.Context(), req, claims.Sub)
	if err != nil {
		return err
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	handlers.WriteJSON(w, status, handlers.CreateResponse("chat ready", *resp, reqID))

	if created {
		h.Hub.Broadcast(websocket.AdminRoom, websocket.ChatUpdateEvent{ChatID: resp.ID, Type: websocket.UpdateChatOpened})
		go h.notifyNewChat(resp, req.Message)
	}

	return nil
}

// ListChats is the agent dashboard's chat overview.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	resp, err := h.Service.ListChats(r.Context())
	if err != nil {
		return err
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chats fetched successfully", *resp, reqID))
	return nil
}

// GetChat returns one chat with its full message history. Agents can read any
// chat; a customer only their own.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	chatID := chi.URLParam(r, "chatId")

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return app_error.NewAppError(http.StatusUnauthorized, "user id is not found in context", "context")
	}

	resp, err := h.Service.GetChat(r.Context(), chatID)
	if err != nil {
		return err
	}

	if !claims.IsAgent && resp.CustomerID != claims.Sub {
		return app_error.NewAppError(http.StatusForbidden, "Not your chat", "chatId")
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chat fetched successfully", *resp, reqID))
	return nil
}

func (h *ChatHandler) UpdateChatStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.UpdateChatStatusRequest
	defer r.Body.Close()

	chatID := chi.URLParam(r, "chatId")

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, err := h.Service.UpdateChatStatus(r.Context(), chatID, req)
	if err != nil {
		return err
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chat status updated", *resp, reqID))

	update := websocket.ChatUpdateEvent{ChatID: resp.ID, Type: websocket.UpdateStatusChanged}
	h.Hub.Broadcast(websocket.AdminRoom, update)
	h.Hub.Broadcast(websocket.ChatRoom(resp.ID), update)

	return nil
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	chatID := chi.URLParam(r, "chatId")

	if err := h.Service.DeleteChat(r.Context(), chatID); err != nil {
		return err
	}

	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		reqID = "unknown"
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chat deleted", "OK", reqID))

	h.Hub.Broadcast(websocket.AdminRoom, websocket.ChatUpdateEvent{ChatID: chatID, Type: websocket.UpdateChatDeleted})

	return nil
}
