//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// Error codes in the 40001-49999 range are the client's fault and return an
// HTTP status in the 4xx range. Codes 50001-59999 are the server's fault and
// return 500 or 503. Never change an existing code; only append new errors
// after the current last 4XXX or 5XXX.
var (
	// Authentication errors (401)
	ErrUnauthorized = Error{Code: 40001, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("authentication required"), LogLevel: "info"}

	// Validation errors (400)
	ErrMalformedBody     = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrEmailMalformed    = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid email format")}
	ErrMalformedURLParam = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrInvalidMemberData = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid member information provided")}
	ErrInvalidOrganizationData = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid organization information provided")}
	ErrInvalidTrainingData     = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid training session data provided")}
	ErrInvalidRole             = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid member role")}

	// Not found errors (404)
	ErrOrganizationNotFound = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("organization not found")}
	ErrMemberNotFound       = Error{Code: 40010, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("member not found")}
	ErrTrainingNotFound     = Error{Code: 40011, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("training session not found")}
	ErrPlanNotFound         = Error{Code: 40012, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("subscription plan not found")}
	ErrOutboxRecordNotFound = Error{Code: 40013, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("outbox record not found")}

	// Conflict errors (409)
	ErrDuplicateConflict = Error{Code: 40901, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("resource already exists")}

	// Subscription errors (400)
	ErrMemberLimitReached = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("organization member limit reached")}
	ErrOrganizationSubscriptionInactive = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("organization subscription is not active")}
	ErrFeatureNotAvailable = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("feature not available in the organization plan")}
	ErrOutboxRecordNotRetryable = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("only failed outbox records can be retried")}

	// Server errors (500) - These should be used sparingly and only for true internal errors
	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: failed to process response"), LogLevel: "error"}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrInternalStorageError       = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: storage operation failed"), LogLevel: "error"}
	ErrStripeWebhookError         = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: stripe webhook failed"), LogLevel: "error"}
)
