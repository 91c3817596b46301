package chat_repo

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ChatRepo struct {
	DB *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepoContract {
	return &ChatRepo{DB: db}
}

// FindOrCreateActiveChat enforces the one-active-chat-per-customer rule: a
// customer with an open or in_progress chat gets that chat back instead of a
// new one. The bool result reports whether a chat was created.
func (r *ChatRepo) FindOrCreateActiveChat(ctx context.Context, customerID string, subject *string) (*entity.Chat, bool, *app_error.AppError) {
	chat, err := r.findActiveChat(ctx, customerID)
	if err == nil {
		return chat, false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, app_error.Internal("failed to query active chat", "db-error")
	}

	newChat := &entity.Chat{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Status:        entity.ChatStatusOpen,
		Subject:       subject,
		LastMessageAt: time.Now(),
	}

	if err := r.DB.WithContext(ctx).Create(newChat).Error; err != nil {
		// Two first-contact requests can race past the find; the loser
		// re-reads the winner's chat.
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			chat, findErr := r.findActiveChat(ctx, customerID)
			if findErr == nil {
				return chat, false, nil
			}
		}
		log.Error().Err(err).Str("customerID", customerID).Msg("failed to create chat")
		return nil, false, app_error.Internal("failed to create chat", "db-error")
	}

	return newChat, true, nil
}

func (r *ChatRepo) findActiveChat(ctx context.Context, customerID string) (*entity.Chat, error) {
	var chat entity.Chat
	err := r.DB.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, []string{entity.ChatStatusOpen, entity.ChatStatusInProgress}).
		Order("created_at DESC").
		First(&chat).Error
	return &chat, err
}

func (r *ChatRepo) FindChatByID(ctx context.Context, chatID uuid.UUID) (*entity.Chat, *app_error.AppError) {
	var chat entity.Chat
	if err := r.DB.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "chat not found", "not-found")
		}
		log.Error().Err(err).Msgf("failed to fetch chat: %v", err)
		return nil, app_error.Internal("failed to fetch chat", "db-error")
	}
	return &chat, nil
}

// GetChatWithMessages returns the consistent snapshot a newly joining client
// reconstructs its view from. Messages come back in ID order.
func (r *ChatRepo) GetChatWithMessages(ctx context.Context, chatID uuid.UUID) (*entity.Chat, *app_error.AppError) {
	var chat entity.Chat
	err := r.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.id ASC")
		}).
		Where("id = ?", chatID).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "chat not found", "not-found")
		}
		return nil, app_error.Internal("failed to fetch chat with messages", "db-error")
	}
	return &chat, nil
}

func (r *ChatRepo) ListChats(ctx context.Context) ([]*entity.Chat, *app_error.AppError) {
	var chats []*entity.Chat
	if err := r.DB.WithContext(ctx).Order("last_message_at DESC").Find(&chats).Error; err != nil {
		return nil, app_error.Internal("failed to list chats", "db-error")
	}
	return chats, nil
}

// AppendMessage persists one chat turn and the chat's metadata in a single
// transaction: the message row, last_message_at, and the agent-facing unread
// counter (incremented for customer messages, zeroed for agent replies)
// commit or roll back together. A failed send therefore leaves nothing
// behind, and the caller can retry the whole operation without duplicating
// the message. A chat deleted under an in-flight send fails with 404 before
// anything commits.
func (r *ChatRepo) AppendMessage(ctx context.Context, chatID uuid.UUID, senderID, content string, isAdmin bool) (*entity.Message, *app_error.AppError) {
	msg := &entity.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		IsAdmin:   isAdmin,
		Content:   content,
		CreatedAt: time.Now(),
	}

	var appErr *app_error.AppError
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat entity.Chat
		if err := tx.Where("id = ?", chatID).First(&chat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				appErr = app_error.NewAppError(http.StatusNotFound, "chat not found", "not-found")
			} else {
				appErr = app_error.Internal("failed to fetch chat", "db-error")
			}
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			appErr = app_error.Internal("failed to create message", "db-error")
			return err
		}

		updates := map[string]any{
			"last_message_at": time.Now(),
		}
		if isAdmin {
			updates["unread_count"] = 0
		} else {
			updates["unread_count"] = gorm.Expr("unread_count + ?", 1)
		}

		if err := tx.Model(&entity.Chat{}).Where("id = ?", chatID).Updates(updates).Error; err != nil {
			appErr = app_error.Internal("failed to update chat metadata", "db-error")
			return err
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("chatID", chatID.String()).Msg("failed to append message")
		if appErr == nil {
			appErr = app_error.Internal("failed to append message", "db-error")
		}
		return nil, appErr
	}

	return msg, nil
}

// AcknowledgeRead flips is_read on the unread messages authored by the other
// role, and for an agent reader also zeroes the unread counter, all in one
// transaction. The predicate only ever selects is_read = false rows, so the
// flag is one-directional and a repeated call is a no-op.
func (r *ChatRepo) AcknowledgeRead(ctx context.Context, chatID uuid.UUID, readerIsAdmin bool) *app_error.AppError {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Message{}).
			Where("chat_id = ? AND is_admin = ? AND is_read = ?", chatID, !readerIsAdmin, false).
			Update("is_read", true).Error; err != nil {
			return err
		}

		if readerIsAdmin {
			if err := tx.Model(&entity.Chat{}).
				Where("id = ?", chatID).
				Update("unread_count", 0).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("chatID", chatID.String()).Msg("failed to acknowledge read")
		return app_error.Internal("failed to acknowledge read", "db-error")
	}
	return nil
}

func (r *ChatRepo) UpdateChatStatus(ctx context.Context, chatID uuid.UUID, status string, assignedTo *string) (*entity.Chat, *app_error.AppError) {
	if !entity.ValidChatStatus(status) {
		return nil, app_error.NewAppError(http.StatusBadRequest, "unknown chat status", "status")
	}

	updates := map[string]any{"status": status}
	if assignedTo != nil {
		updates["assigned_to"] = *assignedTo
	}

	res := r.DB.WithContext(ctx).Model(&entity.Chat{}).Where("id = ?", chatID).Updates(updates)
	if res.Error != nil {
		return nil, app_error.Internal("failed to update chat status", "db-error")
	}
	if res.RowsAffected == 0 {
		return nil, app_error.NewAppError(http.StatusNotFound, "chat not found", "not-found")
	}

	return r.FindChatByID(ctx, chatID)
}

// DeleteChat removes the chat and all of its messages.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID uuid.UUID) *app_error.AppError {
	tx := r.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("chat_id = ?", chatID).Delete(&entity.Message{}).Error; err != nil {
		tx.Rollback()
		return app_error.Internal("failed to delete chat messages", "db-error")
	}

	res := tx.Where("id = ?", chatID).Delete(&entity.Chat{})
	if res.Error != nil {
		tx.Rollback()
		return app_error.Internal("failed to delete chat", "db-error")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return app_error.NewAppError(http.StatusNotFound, "chat not found", "not-found")
	}

	if err := tx.Commit().Error; err != nil {
		return app_error.Internal("failed to commit chat deletion", "db-error")
	}
	return nil
}
