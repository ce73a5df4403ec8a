// Package outbox persists notification delivery requests before they are
// dispatched, so that failures remain observable and retryable by an operator
// instead of vanishing into logs. Records are stored in MongoDB and drained
// sequentially by a single worker goroutine.
package outbox

import (
	"context"
	"fmt"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/enriquebris/goconcurrentqueue"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.vocdoni.io/dvote/log"
)

// Dispatcher is the delivery engine the worker hands records to. Satisfied
// by *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dispatch.Request) *dispatch.Result
}

// Outbox persists and processes notification delivery requests. Enqueue
// writes the record before queueing it, so nothing is lost on a crash;
// pending records found at startup are requeued.
type Outbox struct {
	db         *db.MongoStorage
	dispatcher Dispatcher
	items      *goconcurrentqueue.FIFO
}

// New creates an outbox backed by the given storage and dispatcher.
func New(storage *db.MongoStorage, dispatcher Dispatcher) *Outbox {
	return &Outbox{
		db:         storage,
		dispatcher: dispatcher,
		items:      goconcurrentqueue.NewFIFO(),
	}
}

// Start requeues pending records left over from a previous run and launches
// the worker goroutine. The worker stops when the context is cancelled.
func (o *Outbox) Start(ctx context.Context) error {
	pending, err := o.db.PendingOutboxRecords()
	if err != nil {
		return fmt.Errorf("could not recover pending outbox records: %w", err)
	}
	for _, id := range pending {
		if err := o.items.Enqueue(id); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		log.Infow("recovered pending notifications", "count", len(pending))
	}
	go o.run(ctx)
	return nil
}

// Enqueue persists the request as a pending outbox record and hands it to
// the worker. The organization ID is optional and only used for usage
// counters.
func (o *Outbox) Enqueue(orgID primitive.ObjectID, req *dispatch.Request) (*db.OutboxRecord, error) {
	record := &db.OutboxRecord{
		OrgID:  orgID,
		Status: db.OutboxPending,
		Recipient: db.OutboxRecipient{
			ID:     req.To.ID,
			Email:  req.To.Email,
			Number: req.To.Number,
		},
		TemplateID: req.TemplateID,
		Parameters: req.Parameters,
	}
	if req.Email != nil {
		record.EmailSubject = req.Email.Subject
		record.EmailBody = req.Email.HTML
	}
	if req.SMS != nil {
		record.SMSMessage = req.SMS.Message
	}
	id, err := o.db.SetOutboxRecord(record)
	if err != nil {
		return nil, err
	}
	if err := o.items.Enqueue(id); err != nil {
		return nil, err
	}
	return record, nil
}

// Retry resets a failed record to pending and requeues it.
func (o *Outbox) Retry(id primitive.ObjectID) error {
	if err := o.db.RequeueOutboxRecord(id); err != nil {
		return err
	}
	return o.items.Enqueue(id)
}

// run drains the queue until the context is cancelled. Records are processed
// strictly one at a time; within a record the dispatcher's attempts are
// sequential as well.
func (o *Outbox) run(ctx context.Context) {
	for {
		item, err := o.items.DequeueOrWaitForNextElementContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnw("outbox dequeue error", "error", err)
			continue
		}
		id, ok := item.(primitive.ObjectID)
		if !ok {
			log.Warnw("invalid item type in outbox queue")
			continue
		}
		o.process(ctx, id)
	}
}

// process loads the record, dispatches it and stores the outcome.
func (o *Outbox) process(ctx context.Context, id primitive.ObjectID) {
	record, err := o.db.OutboxRecord(id)
	if err != nil {
		log.Warnw("could not load outbox record", "id", id.Hex(), "error", err)
		return
	}
	if record.Status != db.OutboxPending {
		return
	}
	result := o.dispatcher.Dispatch(ctx, requestFromRecord(record))
	status := db.OutboxSent
	if !result.Success {
		status = db.OutboxFailed
	}
	providerErrors := result.ProviderErrors
	if !result.Success && len(providerErrors) == 0 && result.Error != "" {
		providerErrors = []string{result.Error}
	}
	if err := o.db.MarkOutboxRecord(id, status, result.Provider, result.MessageID, providerErrors); err != nil {
		log.Warnw("could not mark outbox record", "id", id.Hex(), "error", err)
		return
	}
	if result.Success {
		log.Debugw("notification sent",
			"id", id.Hex(),
			"provider", result.Provider,
			"messageId", result.MessageID)
		o.countDelivery(record)
		return
	}
	log.Warnw("notification delivery failed",
		"id", id.Hex(),
		"errors", providerErrors)
}

// countDelivery bumps the organization usage counters after a successful
// delivery.
func (o *Outbox) countDelivery(record *db.OutboxRecord) {
	if record.OrgID == primitive.NilObjectID {
		return
	}
	emails, sms := 0, 0
	if record.SMSMessage != "" && record.EmailSubject == "" && record.TemplateID == "" {
		sms = 1
	} else {
		emails = 1
	}
	if err := o.db.IncrementOrganizationCounters(record.OrgID, 0, emails, sms); err != nil {
		log.Warnw("could not update organization counters",
			"orgID", record.OrgID.Hex(), "error", err)
	}
}

// requestFromRecord rebuilds the dispatch request from a persisted record.
func requestFromRecord(record *db.OutboxRecord) *dispatch.Request {
	req := &dispatch.Request{
		To: dispatch.Recipient{
			ID:     record.Recipient.ID,
			Email:  record.Recipient.Email,
			Number: record.Recipient.Number,
		},
		TemplateID: record.TemplateID,
		Parameters: record.Parameters,
	}
	if record.EmailSubject != "" || record.EmailBody != "" {
		req.Email = &dispatch.EmailPayload{
			Subject: record.EmailSubject,
			HTML:    record.EmailBody,
		}
	}
	if record.SMSMessage != "" {
		req.SMS = &dispatch.SMSPayload{Message: record.SMSMessage}
	}
	return req
}
