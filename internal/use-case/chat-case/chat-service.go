package chat_service

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	chat_repo "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/repo/chat"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/state"
)

type ChatService struct {
	AppState *state.AppState
	ChatRepo chat_repo.ChatRepoContract
}

func NewChatService(appState *state.AppState) ChatServiceContract {
	return &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState.DB),
	}
}

// OpenChat returns the customer's active chat, creating one when none exists.
// The bool reports whether a new chat row was created; the caller uses that
// to fan out the new-chat alert exactly once.
func (c *ChatService) OpenChat(ctx context.Context, req chat_dto.OpenChatRequest, customerID string) (*chat_dto.ChatResponse, bool, *app_error.AppError) {
	chat, created, err := c.ChatRepo.FindOrCreateActiveChat(ctx, customerID, req.Subject)
	if err != nil {
		return nil, false, err
	}

	if req.Message != "" {
		if _, err := c.ChatRepo.AppendMessage(ctx, chat.ID, customerID, req.Message, false); err != nil {
			return nil, created, err
		}
		// re-read so the response carries the updated counter
		chat, err = c.ChatRepo.FindChatByID(ctx, chat.ID)
		if err != nil {
			return nil, created, err
		}
	}

	resp := chat_dto.FromChat(chat, false)
	return &resp, created, nil
}

func (c *ChatService) ListChats(ctx context.Context) (*chat_dto.ChatListResponse, *app_error.AppError) {
	chats, err := c.ChatRepo.ListChats(ctx)
	if err != nil {
		return nil, err
	}

	resp := chat_dto.ChatListResponse{Chats: make([]chat_dto.ChatResponse, 0, len(chats))}
	for _, chat := range chats {
		resp.Chats = append(resp.Chats, chat_dto.FromChat(chat, false))
	}
	return &resp, nil
}

func (c *ChatService) GetChat(ctx context.Context, chatID string) (*chat_dto.ChatResponse, *app_error.AppError) {
	id, parseErr := uuid.Parse(chatID)
	if parseErr != nil {
		return nil, app_error.NewAppError(http.StatusBadRequest, "Invalid chat id", "chatId")
	}

	chat, err := c.ChatRepo.GetChatWithMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := chat_dto.FromChat(chat, true)
	return &resp, nil
}

func (c *ChatService) UpdateChatStatus(ctx context.Context, chatID string, req chat_dto.UpdateChatStatusRequest) (*chat_dto.ChatResponse, *app_error.AppError) {
	id, parseErr := uuid.Parse(chatID)
	if parseErr != nil {
		return nil, app_error.NewAppError(http.StatusBadRequest, "Invalid chat id", "chatId")
	}

	chat, err := c.ChatRepo.UpdateChatStatus(ctx, id, req.Status, req.AssignedTo)
	if err != nil {
		return nil, err
	}

	resp := chat_dto.FromChat(chat, false)
	return &resp, nil
}

func (c *ChatService) DeleteChat(ctx context.Context, chatID string) *app_error.AppError {
	id, parseErr := uuid.Parse(chatID)
	if parseErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid chat id", "chatId")
	}

	return c.ChatRepo.DeleteChat(ctx, id)
}
