package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatStatusOpen       = "open"
	ChatStatusInProgress = "in_progress"
	ChatStatusClosed     = "closed"
)

// ValidChatStatus reports whether s is one of the known lifecycle states.
func ValidChatStatus(s string) bool {
	return s == ChatStatusOpen || s == ChatStatusInProgress || s == ChatStatusClosed
}

// Chat is one customer-support conversation. UnreadCount is agent-facing:
// customer messages not yet acknowledged by any agent.
type Chat struct {
	ID            uuid.UUID `gorm:"primaryKey"`
	CustomerID    string    `gorm:"not null;index"`
	Status        string    `gorm:"not null;default:open;index"`
	Subject       *string
	AssignedTo    *string
	UnreadCount   int64     `gorm:"not null;default:0"`
	LastMessageAt time.Time `gorm:"index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the chat counts as the customer's active chat.
func (c *Chat) Active() bool {
	return c.Status == ChatStatusOpen || c.Status == ChatStatusInProgress
}
