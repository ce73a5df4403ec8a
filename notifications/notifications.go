// Package notifications defines the types shared by every notification
// delivery service of the backend.
package notifications

import "context"

// Notification is a single message addressed to one recipient. Body holds
// the HTML variant and PlainBody the plain text fallback for email clients
// that do not render HTML. For SMS only ToNumber and Body are used.
type Notification struct {
	ToName    string
	ToAddress string
	ToNumber  string
	ReplyTo   string
	Subject   string
	Body      string
	PlainBody string
}

// NotificationService is the interface implemented by every delivery
// transport (SendGrid, SMTP, Twilio, test mail).
type NotificationService interface {
	Init(conf any) error
	SendNotification(context.Context, *Notification) error
}
