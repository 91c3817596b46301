package chat_dto

import (
	"time"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
)

type ChatResponse struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	Status        string            `json:"status"`
	Subject       *string           `json:"subject,omitempty"`
	AssignedTo    *string           `json:"assigned_to,omitempty"`
	UnreadCount   int64             `json:"unread_count"`
	LastMessageAt time.Time         `json:"last_message_at"`
	CreatedAt     time.Time         `json:"created_at"`
	Messages      []MessageResponse `json:"messages,omitempty"`
}

type MessageResponse struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	IsAdmin   bool      `json:"is_admin"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatListResponse struct {
	Chats []ChatResponse `json:"chats"`
}

func FromChat(chat *entity.Chat, withMessages bool) ChatResponse {
	resp := ChatResponse{
		ID:            chat.ID.String(),
		CustomerID:    chat.CustomerID,
		Status:        chat.Status,
		Subject:       chat.Subject,
		AssignedTo:    chat.AssignedTo,
		UnreadCount:   chat.UnreadCount,
		LastMessageAt: chat.LastMessageAt,
		CreatedAt:     chat.CreatedAt,
	}
	if withMessages {
		resp.Messages = make([]MessageResponse, 0, len(chat.Messages))
		for i := range chat.Messages {
			resp.Messages = append(resp.Messages, FromMessage(&chat.Messages[i]))
		}
	}
	return resp
}

func FromMessage(msg *entity.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		ChatID:    msg.ChatID.String(),
		SenderID:  msg.SenderID,
		IsAdmin:   msg.IsAdmin,
		Content:   msg.Content,
		IsRead:    msg.IsRead,
		CreatedAt: msg.CreatedAt,
	}
}
