package api

import (
	"io"
	"net/http"

	"github.com/clubhub/club-backend/errors"
)

// stripeWebhookHandler passes Stripe webhook events to the billing service.
// Stripe retries on any non-2xx status, so storage failures are reported as
// errors while unknown event types are acknowledged.
func (a *API) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		errors.ErrStripeWebhookError.With("billing not configured").Write(w)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.stripe.HandleWebhookEvent(payload, r.Header.Get("Stripe-Signature")); err != nil {
		errors.ErrStripeWebhookError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}
