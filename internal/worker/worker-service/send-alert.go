package worker_service

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/config"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/utils/types"
)

func SendNewChatAlert(payload types.NewChatAlertPayload) error {
	host := config.Conf.SUPPORT.SMTPHost
	port := config.Conf.SUPPORT.SMTPPort
	username := config.Conf.SUPPORT.Username
	password := config.Conf.SUPPORT.Password
	from := config.Conf.SUPPORT.From
	to := config.Conf.SUPPORT.Inbox

	subject := payload.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New support chat: %s", subject))
	m.SetBody("text/plain", fmt.Sprintf(
		"Customer %s opened a new support chat at %s.\n\nSubject: %s\n\n%s\n\nChat ID: %s",
		payload.CustomerID,
		payload.OpenedAt.Format("2006-01-02 15:04:05 MST"),
		subject,
		payload.Preview,
		payload.ChatID,
	))

	d := gomail.NewDialer(host, port, username, password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send new-chat alert mail: %w", err)
	}

	return nil
}
