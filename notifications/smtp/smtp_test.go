package smtp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/clubhub/club-backend/notifications"
	"github.com/clubhub/club-backend/notifications/testmail"
	"github.com/clubhub/club-backend/test"
)

const (
	testFromName    = "ClubHub"
	testFromAddress = "no-reply@clubhub.test"
)

// testSender delivers through the MailHog SMTP port.
var testSender *Email

// testInbox searches delivered messages through the MailHog API.
var testInbox *testmail.Mail

func TestMain(m *testing.M) {
	ctx := context.Background()
	mailContainer, err := test.StartMailService(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start mail container: %v", err))
	}
	host, err := mailContainer.Host(ctx)
	if err != nil {
		panic(err)
	}
	smtpPort, err := mailContainer.MappedPort(ctx, test.MailSMTPPort)
	if err != nil {
		panic(err)
	}
	apiPort, err := mailContainer.MappedPort(ctx, test.MailAPIPort)
	if err != nil {
		panic(err)
	}
	testSender = new(Email)
	if err := testSender.Init(&Config{
		FromName:    testFromName,
		FromAddress: testFromAddress,
		SMTPServer:  host,
		SMTPPort:    smtpPort.Int(),
	}); err != nil {
		panic(err)
	}
	testInbox = new(testmail.Mail)
	if err := testInbox.Init(&testmail.Config{
		FromAddress: testFromAddress,
		Host:        host,
		SMTPPort:    smtpPort.Int(),
		APIPort:     apiPort.Int(),
	}); err != nil {
		panic(err)
	}
	code := m.Run()
	if err := mailContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop mail container: %v", err))
	}
	os.Exit(code)
}

// findEmail polls the MailHog API until a message for the recipient shows up.
func findEmail(ctx context.Context, to string) (string, error) {
	var body string
	var err error
	for i := 0; i < 10; i++ {
		if body, err = testInbox.FindEmail(ctx, to); err == nil {
			return body, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return "", err
}

func TestSendNotification(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	notification := &notifications.Notification{
		ToAddress: "member@example.com",
		Subject:   "Welcome to Oslo Pistol Club",
		Body:      "<p>Hello Kari</p>",
		PlainBody: "Hello Kari",
	}
	c.Assert(testSender.SendNotification(ctx, notification), qt.IsNil)

	body, err := findEmail(ctx, notification.ToAddress)
	c.Assert(err, qt.IsNil)
	c.Assert(body, qt.Contains, "Hello Kari")
	// both the plain text and the HTML alternative travel in the message
	c.Assert(strings.Contains(body, "text/html") || strings.Contains(body, "Content-Type"), qt.IsTrue)
}

func TestSendNotificationInvalidRecipient(t *testing.T) {
	c := qt.New(t)
	err := testSender.SendNotification(context.Background(), &notifications.Notification{
		ToAddress: "not an address",
		Subject:   "Hello",
		Body:      "<p>Hello</p>",
	})
	c.Assert(err, qt.IsNotNil)
}

func TestInitInvalidConfig(t *testing.T) {
	c := qt.New(t)
	bad := new(Email)
	c.Assert(bad.Init("not a config"), qt.IsNotNil)
	c.Assert(bad.Init(&Config{FromAddress: "not an address"}), qt.IsNotNil)
}
