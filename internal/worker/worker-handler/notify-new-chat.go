package worker_handler

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/utils/types"
	worker_service "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/worker/worker-service"
)

// HandleNotifyNewChat mails the support inbox about a freshly opened chat.
// The dashboards already got their chat-update push when the chat was
// created; this covers agents who are not looking at the dashboard.
func HandleNotifyNewChat(raw json.RawMessage) error {
	var payload types.NewChatAlertPayload

	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid new-chat alert payload: %w", err)
	}

	log.Info().Str("chat_id", payload.ChatID).Str("customer_id", payload.CustomerID).Msg("sending new-chat alert mail")

	return worker_service.SendNewChatAlert(payload)
}
