package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/errors"
	"github.com/clubhub/club-backend/notifications/dispatch"
)

// dispatchNotificationHandler dispatches a notification request
// synchronously. The HTTP status is always 200, the delivery outcome travels
// in the response body so that callers distinguish transport failures from
// delivery failures.
func (a *API) dispatchNotificationHandler(w http.ResponseWriter, r *http.Request) {
	req := &dispatch.Request{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	result := a.dispatcher.Dispatch(r.Context(), req)
	httpWriteJSON(w, result)
}

// outboxListHandler lists outbox records, optionally filtered by status.
func (a *API) outboxListHandler(w http.ResponseWriter, r *http.Request) {
	status := db.OutboxStatus(r.URL.Query().Get("status"))
	switch status {
	case "", db.OutboxPending, db.OutboxSent, db.OutboxFailed:
	default:
		errors.ErrMalformedURLParam.Withf("unknown outbox status %q", status).Write(w)
		return
	}
	limit := int64(100)
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.ParseInt(rawLimit, 10, 64)
		if err != nil || parsed < 1 {
			errors.ErrMalformedURLParam.With("invalid limit").Write(w)
			return
		}
		limit = parsed
	}
	records, err := a.db.OutboxRecords(status, limit)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	response := &OutboxResponse{Records: []*OutboxRecordInfo{}}
	for _, record := range records {
		response.Records = append(response.Records, outboxRecordInfo(record))
	}
	httpWriteJSON(w, response)
}

// outboxRetryHandler requeues a failed outbox record for another delivery
// attempt.
func (a *API) outboxRetryHandler(w http.ResponseWriter, r *http.Request) {
	recordID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "recordID"))
	if err != nil {
		errors.ErrMalformedURLParam.With("invalid record id").Write(w)
		return
	}
	record, err := a.db.OutboxRecord(recordID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrOutboxRecordNotFound.Write(w)
			return
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if record.Status != db.OutboxFailed {
		errors.ErrOutboxRecordNotRetryable.Withf("record is %s", record.Status).Write(w)
		return
	}
	if err := a.outbox.Retry(recordID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// templatesReloadHandler drops the rendered template cache so that templates
// changed on disk take effect without a restart.
func (a *API) templatesReloadHandler(w http.ResponseWriter, _ *http.Request) {
	a.catalog.Invalidate()
	httpWriteOK(w)
}
