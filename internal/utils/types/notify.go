package types

import "time"

// NewChatAlertPayload rides the priority queue to the alert worker when a
// customer opens a brand-new chat.
type NewChatAlertPayload struct {
	ChatID     string    `json:"chat_id"`
	CustomerID string    `json:"customer_id"`
	Subject    string    `json:"subject,omitempty"`
	Preview    string    `json:"preview,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}
