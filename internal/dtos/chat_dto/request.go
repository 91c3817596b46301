package chat_dto

// OpenChatRequest creates (or reuses) the customer's active chat. An optional
// opening message is persisted as the first chat turn.
type OpenChatRequest struct {
	Subject *string `json:"subject" validate:"omitempty,max=200"`
	Message string  `json:"message" validate:"omitempty,min=1"`
}

type UpdateChatStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=open in_progress closed"`
	AssignedTo *string `json:"assigned_to" validate:"omitempty,uuid"`
}
