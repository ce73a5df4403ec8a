// Package sendgrid implements the secondary email provider. It only supports
// direct HTML email, which is why the dispatcher falls back to it exclusively
// for requests carrying an inline email payload.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/clubhub/club-backend/notifications"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config holds the SendGrid sender identity and API key.
type Config struct {
	FromName    string
	FromAddress string
	APIKey      string
}

// Email is the SendGrid implementation of the NotificationService interface.
type Email struct {
	config *Config
	client *sendgrid.Client
}

// Init parses the configuration and creates the SendGrid client.
func (sg *Email) Init(rawConfig any) error {
	config, ok := rawConfig.(*Config)
	if !ok {
		return fmt.Errorf("invalid SendGrid configuration")
	}
	if config.APIKey == "" {
		return fmt.Errorf("missing SendGrid API key")
	}
	sg.config = config
	sg.client = sendgrid.NewSendClient(sg.config.APIKey)
	return nil
}

// SendNotification sends an email with the notification data. The plain body
// falls back to the HTML body when empty.
func (sg *Email) SendNotification(ctx context.Context, notification *notifications.Notification) error {
	from := mail.NewEmail(sg.config.FromName, sg.config.FromAddress)
	to := mail.NewEmail(notification.ToName, notification.ToAddress)
	plain := notification.PlainBody
	if plain == "" {
		plain = notification.Body
	}
	message := mail.NewSingleEmail(from, notification.Subject, to, plain, notification.Body)
	resp, err := sg.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected the message with status %d", resp.StatusCode)
	}
	return nil
}
