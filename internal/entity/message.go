package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat turn. The bigserial ID gives a global total order,
// so ordering within a chat follows from the ID alone. Rows are immutable
// except for IsRead, which only ever flips false -> true.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    uuid.UUID `gorm:"not null;index"`
	SenderID  string    `gorm:"not null"`
	IsAdmin   bool      `gorm:"not null"` // agent-authored, independent of the account-level role
	Content   string    `gorm:"not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}
