package entity

import (
	"encoding/json"
	"time"
)

const (
	DLQStatusPending    = "pending"
	DLQStatusProcessing = "processing"
	DLQStatusCompleted  = "completed"
	DLQStatusFailed     = "failed"
)

// DLQJob is the durable audit row for a job that exhausted its retries.
type DLQJob struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID              string          `gorm:"not null;uniqueIndex" json:"job_id"`
	Type               string          `gorm:"not null" json:"type"`
	Payload            json.RawMessage `gorm:"type:jsonb" json:"payload"`
	ErrorMsg           string          `json:"error_msg"`
	Status             string          `gorm:"not null;default:pending;index" json:"status"`
	RetryCount         int             `gorm:"not null;default:0" json:"retry_count"`
	OriginalRetryCount int             `gorm:"not null;default:0" json:"original_retry_count"`
	NextRetryAt        *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	FailedAt           *time.Time      `json:"failed_at,omitempty"`
	ExpireAt           time.Time       `json:"expired_at"`
}
