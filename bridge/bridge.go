// Package bridge turns entity change events from the database into
// notification deliveries. It watches the members and training sessions
// collections and reacts to three field transitions: a training session
// getting verified, a member role changing and a member being deactivated.
// Everything it enqueues is best effort; a failed lookup aborts the single
// notification, never the mutation that caused it.
package bridge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/internal"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/templates"
	"github.com/clubhub/club-backend/subscriptions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.vocdoni.io/dvote/log"
)

// Enqueuer is where the bridge hands its notification requests. Satisfied by
// *outbox.Outbox.
type Enqueuer interface {
	Enqueue(orgID primitive.ObjectID, req *dispatch.Request) (*db.OutboxRecord, error)
}

// Config holds the dependencies of the bridge.
type Config struct {
	DB            *db.MongoStorage
	Outbox        Enqueuer
	Subscriptions *subscriptions.Subscriptions
}

// Bridge subscribes to the database change feed and enqueues notifications
// for the transitions it tracks.
type Bridge struct {
	db     *db.MongoStorage
	outbox Enqueuer
	subs   *subscriptions.Subscriptions
}

// New creates a bridge from the given configuration.
func New(conf *Config) *Bridge {
	if conf == nil {
		return nil
	}
	return &Bridge{
		db:     conf.DB,
		outbox: conf.Outbox,
		subs:   conf.Subscriptions,
	}
}

// Start opens the change feed and consumes it until the context is
// cancelled. Each event is handled in its own goroutine; there is no
// ordering guarantee between notifications for different entities.
func (b *Bridge) Start(ctx context.Context) error {
	events, err := b.db.WatchChanges(ctx, db.MembersCollection, db.TrainingsCollection)
	if err != nil {
		return fmt.Errorf("could not open change feed: %w", err)
	}
	go func() {
		for event := range events {
			go b.HandleEvent(ctx, event)
		}
		log.Infow("change feed closed")
	}()
	return nil
}

// HandleEvent inspects one change event and enqueues the notifications its
// field transitions call for. Exported so tests can feed events directly.
func (b *Bridge) HandleEvent(ctx context.Context, event *db.ChangeEvent) {
	if event == nil || event.Operation != db.OperationUpdate && event.Operation != db.OperationReplace {
		return
	}
	switch event.Collection {
	case db.TrainingsCollection:
		b.handleTrainingChange(event)
	case db.MembersCollection:
		b.handleMemberChange(event)
	}
}

// handleTrainingChange reacts to the verified flag flipping false to true.
// Un-verification is deliberately not notified.
func (b *Bridge) handleTrainingChange(event *db.ChangeEvent) {
	var oldSession, newSession db.TrainingSession
	if err := bson.Unmarshal(event.Old, &oldSession); err != nil {
		log.Warnw("could not decode old training snapshot", "error", err)
		return
	}
	if err := bson.Unmarshal(event.New, &newSession); err != nil {
		log.Warnw("could not decode new training snapshot", "error", err)
		return
	}
	if oldSession.Verified || !newSession.Verified {
		return
	}
	member, org, ok := b.lookupMemberAndOrg(newSession.MemberID)
	if !ok {
		return
	}
	emailEnabled, smsEnabled := b.allowedChannels(member.ID, CategoryTraining)
	if !emailEnabled && !smsEnabled {
		log.Debugw("training notification skipped by preferences",
			"memberID", member.ID.Hex())
		return
	}
	params := dispatch.Parameters{
		"name":       member.FullName,
		"orgName":    org.Name,
		"date":       internal.FormatDate(newSession.Date),
		"duration":   strconv.Itoa(newSession.DurationMinutes),
		"discipline": db.DisciplineName(newSession.Discipline),
		"verifiedBy": newSession.VerifiedBy,
	}
	if emailEnabled {
		b.enqueue(org.ID, &dispatch.Request{
			To:         dispatch.Recipient{ID: member.ID.Hex(), Email: member.Email},
			TemplateID: templates.TrainingVerified.TemplateID(),
			Parameters: params,
		})
	}
	if smsEnabled && member.Phone != "" && b.smsAvailable(org) {
		message := fmt.Sprintf("%s: your training session on %s (%s, %d min) has been verified by %s.",
			org.Name, params["date"], params["discipline"], newSession.DurationMinutes, newSession.VerifiedBy)
		b.enqueue(org.ID, &dispatch.Request{
			To:  dispatch.Recipient{ID: member.ID.Hex(), Number: member.Phone},
			SMS: &dispatch.SMSPayload{Message: message},
		})
	}
}

// handleMemberChange reacts to role changes (any direction) and to the
// active flag flipping true to false. Reactivation is not notified.
func (b *Bridge) handleMemberChange(event *db.ChangeEvent) {
	var oldMember, newMember db.Member
	if err := bson.Unmarshal(event.Old, &oldMember); err != nil {
		log.Warnw("could not decode old member snapshot", "error", err)
		return
	}
	if err := bson.Unmarshal(event.New, &newMember); err != nil {
		log.Warnw("could not decode new member snapshot", "error", err)
		return
	}
	if oldMember.Role != newMember.Role {
		b.notifyRoleUpdated(&newMember)
	}
	if oldMember.Active && !newMember.Active {
		b.notifyAccountSuspended(&newMember)
	}
}

func (b *Bridge) notifyRoleUpdated(member *db.Member) {
	org, ok := b.lookupOrg(member.OrgID)
	if !ok {
		return
	}
	emailEnabled, smsEnabled := b.allowedChannels(member.ID, CategoryRole)
	if !emailEnabled && !smsEnabled {
		return
	}
	roleLabel := db.RoleName(member.Role)
	if emailEnabled {
		b.enqueue(org.ID, &dispatch.Request{
			To:         dispatch.Recipient{ID: member.ID.Hex(), Email: member.Email},
			TemplateID: templates.RoleUpdated.TemplateID(),
			Parameters: dispatch.Parameters{
				"name":    member.FullName,
				"orgName": org.Name,
				"role":    roleLabel,
			},
		})
	}
	if smsEnabled && member.Phone != "" && b.smsAvailable(org) {
		message := fmt.Sprintf("%s: your role is now %s.", org.Name, roleLabel)
		b.enqueue(org.ID, &dispatch.Request{
			To:  dispatch.Recipient{ID: member.ID.Hex(), Number: member.Phone},
			SMS: &dispatch.SMSPayload{Message: message},
		})
	}
}

// notifyAccountSuspended always sends, suspension is a security category
// notification and bypasses the preference gate.
func (b *Bridge) notifyAccountSuspended(member *db.Member) {
	org, ok := b.lookupOrg(member.OrgID)
	if !ok {
		return
	}
	b.enqueue(org.ID, &dispatch.Request{
		To:         dispatch.Recipient{ID: member.ID.Hex(), Email: member.Email},
		TemplateID: templates.AccountSuspended.TemplateID(),
		Parameters: dispatch.Parameters{
			"name":    member.FullName,
			"orgName": org.Name,
		},
	})
}

// lookupMemberAndOrg resolves the member and its organization. A missing row
// aborts the notification for this event: logged, not retried, never
// surfaced to the mutation that triggered it.
func (b *Bridge) lookupMemberAndOrg(memberID primitive.ObjectID) (*db.Member, *db.Organization, bool) {
	member, err := b.db.Member(memberID)
	if err != nil {
		log.Warnw("could not load member for notification",
			"memberID", memberID.Hex(), "error", err)
		return nil, nil, false
	}
	org, ok := b.lookupOrg(member.OrgID)
	if !ok {
		return nil, nil, false
	}
	return member, org, true
}

func (b *Bridge) lookupOrg(orgID primitive.ObjectID) (*db.Organization, bool) {
	org, err := b.db.Organization(orgID)
	if err != nil {
		log.Warnw("could not load organization for notification",
			"orgID", orgID.Hex(), "error", err)
		return nil, false
	}
	return org, true
}

func (b *Bridge) smsAvailable(org *db.Organization) bool {
	return b.subs == nil || b.subs.HasSMSNotifications(org)
}

func (b *Bridge) enqueue(orgID primitive.ObjectID, req *dispatch.Request) {
	if b.outbox == nil {
		return
	}
	if _, err := b.outbox.Enqueue(orgID, req); err != nil {
		log.Warnw("could not enqueue notification", "error", err)
	}
}
