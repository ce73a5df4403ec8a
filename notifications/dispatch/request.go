package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Recipient identifies who a notification is addressed to. ID is the member
// identifier, opaque to the providers. Number is only required for SMS.
type Recipient struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Number string `json:"number,omitempty"`
}

// EmailPayload is an inline email body. Requests carrying it can be serviced
// by the fallback provider, which only supports direct HTML email.
type EmailPayload struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SMSPayload is a short plain text message.
type SMSPayload struct {
	Message string `json:"message"`
}

// Parameters maps template placeholder keys to values. The JSON wire format
// accepts strings and numbers; numbers are normalized to their decimal string
// form on decode.
type Parameters map[string]string

// UnmarshalJSON accepts string and number values, stringifying numbers.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Parameters, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Errorf("parameter %q must be a string or a number", key)
		}
	}
	*p = out
	return nil
}

// Request is a single notification delivery request. Either the inline
// channel payloads (Email, SMS) or a template identifier with parameters is
// expected to be populated.
type Request struct {
	To         Recipient     `json:"to"`
	Email      *EmailPayload `json:"email,omitempty"`
	SMS        *SMSPayload   `json:"sms,omitempty"`
	TemplateID string        `json:"templateId,omitempty"`
	Parameters Parameters    `json:"parameters,omitempty"`
}

// Empty reports whether the request carries nothing deliverable.
func (r *Request) Empty() bool {
	return r.Email == nil && r.SMS == nil && r.TemplateID == ""
}

// SMSOnly reports whether the request is a plain SMS with no email component.
func (r *Request) SMSOnly() bool {
	return r.SMS != nil && r.Email == nil && r.TemplateID == ""
}

// Result is the uniform outcome of a dispatch. Failures are reported in-band;
// Dispatch never returns an error to its caller.
type Result struct {
	Success        bool     `json:"success"`
	Provider       string   `json:"provider,omitempty"`
	MessageID      string   `json:"messageId,omitempty"`
	Error          string   `json:"error,omitempty"`
	ProviderErrors []string `json:"provider_errors,omitempty"`
}

// StatusError is a provider rejection carrying the HTTP status of the
// response. The dispatcher uses the status to decide fallback eligibility.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.Status)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}
