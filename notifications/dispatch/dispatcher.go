// Package dispatch delivers notification requests through a primary
// transactional provider with endpoint failover and a secondary email-only
// fallback. Delivery is best effort: every failure is captured into the
// returned Result, never surfaced as an error to the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clubhub/club-backend/notifications"
	"go.vocdoni.io/dvote/log"
)

// maxPrimaryAttempts bounds the attempts against the primary provider: one
// per configured endpoint, regional first.
const maxPrimaryAttempts = 2

// Primary is the first-choice transactional provider. It supports templated
// email, inline email and SMS, and exposes more than one endpoint so the
// dispatcher can retry a regional outage against the global endpoint.
type Primary interface {
	Name() string
	Endpoints() []string
	// Send delivers the request through the given endpoint and returns the
	// provider message identifier. Rejections with an HTTP status are
	// reported as *StatusError.
	Send(ctx context.Context, endpoint string, req *Request) (string, error)
}

// Config holds the providers the dispatcher routes through. Fallback is
// optional and only serves inline email payloads. SMSOverride is optional;
// when set, SMS-only requests are routed through it instead of the primary
// provider.
type Config struct {
	Primary         Primary
	Fallback        notifications.NotificationService
	FallbackName    string
	SMSOverride     notifications.NotificationService
	SMSOverrideName string
}

// Dispatcher delivers one Request to exactly one successful provider, or
// reports aggregate failure. It is stateless and safe for concurrent use.
type Dispatcher struct {
	primary         Primary
	fallback        notifications.NotificationService
	fallbackName    string
	smsOverride     notifications.NotificationService
	smsOverrideName string
}

// New creates a dispatcher from the given provider configuration.
func New(conf *Config) *Dispatcher {
	if conf == nil {
		return nil
	}
	return &Dispatcher{
		primary:         conf.Primary,
		fallback:        conf.Fallback,
		fallbackName:    conf.FallbackName,
		smsOverride:     conf.SMSOverride,
		smsOverrideName: conf.SMSOverrideName,
	}
}

// Dispatch attempts delivery of the request: at most two attempts against the
// primary provider (regional then global endpoint), then at most one fallback
// attempt when the failure is fallback-eligible and the request carries an
// inline email payload. All provider errors are accumulated into the result.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Result {
	if req == nil || req.Empty() {
		return failure("nothing to deliver: no payload or template provided", nil)
	}
	if req.SMS != nil && req.To.Number == "" {
		return failure("missing recipient phone number", nil)
	}
	if (req.Email != nil || req.TemplateID != "") && req.To.Email == "" {
		return failure("missing recipient email address", nil)
	}
	// SMS-only requests can be routed through a dedicated SMS transport.
	// There is no fallback for them in any case.
	if req.SMSOnly() && d.smsOverride != nil {
		return d.dispatchSMSOverride(ctx, req)
	}
	if d.primary == nil {
		return failure("primary provider is not configured", nil)
	}

	var providerErrors []string
	endpoints := d.primary.Endpoints()
	if len(endpoints) > maxPrimaryAttempts {
		endpoints = endpoints[:maxPrimaryAttempts]
	}
	var lastErr error
	for _, endpoint := range endpoints {
		messageID, err := d.primary.Send(ctx, endpoint, req)
		if err == nil {
			log.Debugw("notification delivered",
				"provider", d.primary.Name(),
				"endpoint", endpoint,
				"messageId", messageID)
			return &Result{
				Success:        true,
				Provider:       d.primary.Name(),
				MessageID:      messageID,
				ProviderErrors: providerErrors,
			}
		}
		lastErr = err
		providerErrors = append(providerErrors,
			fmt.Sprintf("%s (%s): %v", d.primary.Name(), endpoint, err))
		log.Warnw("primary provider attempt failed",
			"provider", d.primary.Name(),
			"endpoint", endpoint,
			"error", err)
	}

	// The secondary provider only supports direct HTML email, so templated
	// and SMS requests are terminal here.
	if d.fallback != nil && req.Email != nil && fallbackEligible(lastErr) {
		if err := d.fallback.SendNotification(ctx, &notifications.Notification{
			ToAddress: req.To.Email,
			Subject:   req.Email.Subject,
			Body:      req.Email.HTML,
			PlainBody: req.Email.HTML,
		}); err != nil {
			providerErrors = append(providerErrors,
				fmt.Sprintf("%s: %v", d.fallbackName, err))
			log.Warnw("fallback provider attempt failed",
				"provider", d.fallbackName,
				"error", err)
		} else {
			log.Infow("notification delivered via fallback provider",
				"provider", d.fallbackName)
			return &Result{
				Success:        true,
				Provider:       d.fallbackName,
				ProviderErrors: providerErrors,
			}
		}
	}
	return failure(strings.Join(providerErrors, "; "), providerErrors)
}

// dispatchSMSOverride delivers an SMS-only request through the configured
// SMS transport.
func (d *Dispatcher) dispatchSMSOverride(ctx context.Context, req *Request) *Result {
	if err := d.smsOverride.SendNotification(ctx, &notifications.Notification{
		ToNumber: req.To.Number,
		Body:     req.SMS.Message,
	}); err != nil {
		log.Warnw("sms transport attempt failed",
			"provider", d.smsOverrideName,
			"error", err)
		return failure(fmt.Sprintf("%s: %v", d.smsOverrideName, err),
			[]string{fmt.Sprintf("%s: %v", d.smsOverrideName, err)})
	}
	return &Result{Success: true, Provider: d.smsOverrideName}
}

// fallbackEligible classifies a primary provider failure. Authentication
// (401/403) and server-class (5xx) rejections justify an attempt against the
// secondary provider. Failures without an HTTP status, such as connection
// errors, are treated as eligible as well to keep delivery best effort.
func fallbackEligible(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return true
	}
	return statusErr.Status == 401 || statusErr.Status == 403 || statusErr.Status >= 500
}

func failure(msg string, providerErrors []string) *Result {
	return &Result{
		Success:        false,
		Error:          msg,
		ProviderErrors: providerErrors,
	}
}
