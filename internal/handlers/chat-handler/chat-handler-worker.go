package chat_handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/utils/types"
)

func (h *ChatHandler) notifyNewChat(resp *chat_dto.ChatResponse, preview string) {
	subject := ""
	if resp.Subject != nil {
		subject = *resp.Subject
	}

	jobPayload := &types.NewChatAlertPayload{
		ChatID:     resp.ID,
		CustomerID: resp.CustomerID,
		Subject:    subject,
		Preview:    preview,
		OpenedAt:   resp.CreatedAt,
	}

	job := queue.Job{
		ID:        uuid.New().String(),
		Type:      queue.JobNotifyNewChat,
		Payload:   queue.MustMarshal(jobPayload),
		Priority:  1,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: time.Now().Unix(),
		ExpireAt:  time.Now().Add(5 * time.Minute).Unix(),
	}

	if err := h.Producer.Enqueue(h.State.Ctx, job); err != nil {
		log.Error().Err(err).Str("chat_id", resp.ID).Msg("Failed to enqueue new-chat alert")
		return
	}

	log.Info().Str("job_id", job.ID).Str("chat_id", resp.ID).Msg("New-chat alert enqueued")
}
