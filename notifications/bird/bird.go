// Package bird implements the primary transactional notification provider
// client. The Bird channels API supports templated email, inline email and
// SMS through a single messages endpoint, and is reachable both on a regional
// and on a global endpoint.
package bird

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clubhub/club-backend/notifications/dispatch"
)

const (
	// DefaultRegionalEndpoint is the EU regional API endpoint.
	DefaultRegionalEndpoint = "https://api.eu-west-1.bird.com"
	// DefaultGlobalEndpoint is the global API endpoint, used as the retry
	// target when the regional endpoint fails.
	DefaultGlobalEndpoint = "https://api.bird.com"

	messagesPath = "/v1/messages"
	// maxErrorBody caps how much of a provider error response is kept in
	// the returned error.
	maxErrorBody = 512
)

// Config holds the credentials and sender identities for the Bird API.
type Config struct {
	APIKey           string
	RegionalEndpoint string
	GlobalEndpoint   string
	FromName         string
	FromAddress      string
	FromNumber       string
}

// Client is a thin HTTP client for the Bird messages API. It implements
// dispatch.Primary.
type Client struct {
	config *Config
	http   *http.Client
}

// New creates a Bird client. Endpoints default to the EU regional and global
// API endpoints when not configured.
func New(config *Config) (*Client, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("missing Bird API key")
	}
	if config.RegionalEndpoint == "" {
		config.RegionalEndpoint = DefaultRegionalEndpoint
	}
	if config.GlobalEndpoint == "" {
		config.GlobalEndpoint = DefaultGlobalEndpoint
	}
	return &Client{
		config: config,
		http:   http.DefaultClient,
	}, nil
}

// Name returns the provider name used in dispatch results.
func (*Client) Name() string {
	return "bird"
}

// Endpoints returns the delivery endpoints in attempt order, regional first.
func (c *Client) Endpoints() []string {
	return []string{c.config.RegionalEndpoint, c.config.GlobalEndpoint}
}

// message is the request body of the Bird messages API. Exactly one of the
// channel bodies is populated per call.
type message struct {
	To         recipient         `json:"to"`
	From       sender            `json:"from"`
	Subject    string            `json:"subject,omitempty"`
	HTML       string            `json:"html,omitempty"`
	Body       string            `json:"body,omitempty"`
	Channel    string            `json:"channel"`
	TemplateID string            `json:"templateId,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

type recipient struct {
	Email  string `json:"email,omitempty"`
	Number string `json:"number,omitempty"`
}

type sender struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Number  string `json:"number,omitempty"`
}

// Send delivers one request through the given endpoint. A non-2xx response is
// returned as a *dispatch.StatusError so the dispatcher can classify it.
func (c *Client) Send(ctx context.Context, endpoint string, req *dispatch.Request) (string, error) {
	msg, err := c.buildMessage(req)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("could not encode message: %w", err)
	}
	url := strings.TrimSuffix(endpoint, "/") + messagesPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "AccessKey "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &dispatch.StatusError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		// delivery succeeded even if the response body is not decodable
		return "", nil
	}
	return result.ID, nil
}

// buildMessage maps a dispatch request into the Bird wire format. Templated
// requests are passed through by identifier, the provider holds the template
// content. Inline email takes precedence over SMS when both are present.
func (c *Client) buildMessage(req *dispatch.Request) (*message, error) {
	switch {
	case req.TemplateID != "":
		return &message{
			To:         recipient{Email: req.To.Email, Number: req.To.Number},
			From:       sender{Name: c.config.FromName, Address: c.config.FromAddress},
			Channel:    "email",
			TemplateID: req.TemplateID,
			Variables:  req.Parameters,
		}, nil
	case req.Email != nil:
		return &message{
			To:      recipient{Email: req.To.Email},
			From:    sender{Name: c.config.FromName, Address: c.config.FromAddress},
			Channel: "email",
			Subject: req.Email.Subject,
			HTML:    req.Email.HTML,
		}, nil
	case req.SMS != nil:
		return &message{
			To:      recipient{Number: req.To.Number},
			From:    sender{Number: c.config.FromNumber},
			Channel: "sms",
			Body:    req.SMS.Message,
		}, nil
	default:
		return nil, fmt.Errorf("empty notification request")
	}
}
