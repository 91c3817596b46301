package chat_service

import (
	"context"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
)

type ChatServiceContract interface {
	OpenChat(ctx context.Context, req chat_dto.OpenChatRequest, customerID string) (*chat_dto.ChatResponse, bool, *app_error.AppError)
	ListChats(ctx context.Context) (*chat_dto.ChatListResponse, *app_error.AppError)
	GetChat(ctx context.Context, chatID string) (*chat_dto.ChatResponse, *app_error.AppError)
	UpdateChatStatus(ctx context.Context, chatID string, req chat_dto.UpdateChatStatusRequest) (*chat_dto.ChatResponse, *app_error.AppError)
	DeleteChat(ctx context.Context, chatID string) *app_error.AppError
}
