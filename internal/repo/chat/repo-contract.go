package chat_repo

import (
	"context"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	"github.com/google/uuid"
)

// ChatRepoContract is the persistence boundary the message router and the
// HTTP layer write through. All chat/message mutations go through here.
type ChatRepoContract interface {
	FindOrCreateActiveChat(ctx context.Context, customerID string, subject *string) (*entity.Chat, bool, *app_error.AppError)
	FindChatByID(ctx context.Context, chatID uuid.UUID) (*entity.Chat, *app_error.AppError)
	GetChatWithMessages(ctx context.Context, chatID uuid.UUID) (*entity.Chat, *app_error.AppError)
	ListChats(ctx context.Context) ([]*entity.Chat, *app_error.AppError)
	AppendMessage(ctx context.Context, chatID uuid.UUID, senderID, content string, isAdmin bool) (*entity.Message, *app_error.AppError)
	AcknowledgeRead(ctx context.Context, chatID uuid.UUID, readerIsAdmin bool) *app_error.AppError
	UpdateChatStatus(ctx context.Context, chatID uuid.UUID, status string, assignedTo *string) (*entity.Chat, *app_error.AppError)
	DeleteChat(ctx context.Context, chatID uuid.UUID) *app_error.AppError
}
