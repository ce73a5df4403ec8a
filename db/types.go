package db

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRole is the role of a member inside its organization.
type MemberRole string

// Organization is a club tenant. Branding fields (name, slug, color, logo)
// are the ones exposed on public registration pages.
type Organization struct {
	ID           primitive.ObjectID       `json:"id" bson:"_id,omitempty"`
	Name         string                   `json:"name" bson:"name"`
	Slug         string                   `json:"slug" bson:"slug"`
	Color        string                   `json:"color" bson:"color"`
	LogoURL      string                   `json:"logoURL" bson:"logoURL"`
	Country      string                   `json:"country" bson:"country"`
	Timezone     string                   `json:"timezone" bson:"timezone"`
	Active       bool                     `json:"active" bson:"active"`
	CreatedAt    time.Time                `json:"createdAt" bson:"createdAt"`
	Subscription OrganizationSubscription `json:"subscription" bson:"subscription"`
	Counters     OrganizationCounters     `json:"counters" bson:"counters"`
}

// OrganizationSubscription links an organization to its plan. StripeID is the
// Stripe subscription identifier synced by the webhook.
type OrganizationSubscription struct {
	PlanID      uint64    `json:"planID" bson:"planID"`
	StripeID    string    `json:"stripeID" bson:"stripeID"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	RenewalDate time.Time `json:"renewalDate" bson:"renewalDate"`
	Active      bool      `json:"active" bson:"active"`
}

// OrganizationCounters tracks per-organization usage against plan limits.
type OrganizationCounters struct {
	Members    int `json:"members" bson:"members"`
	Admins     int `json:"admins" bson:"admins"`
	SentEmails int `json:"sentEmails" bson:"sentEmails"`
	SentSMS    int `json:"sentSMS" bson:"sentSMS"`
}

// Member is a registered club member. Members await administrator approval
// after registering; only approved and active members can log trainings.
type Member struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID     primitive.ObjectID `json:"orgID" bson:"orgID"`
	Email     string             `json:"email" bson:"email"`
	FullName  string             `json:"fullName" bson:"fullName"`
	Phone     string             `json:"phone" bson:"phone"`
	Role      MemberRole         `json:"role" bson:"role"`
	Active    bool               `json:"active" bson:"active"`
	Approved  bool               `json:"approved" bson:"approved"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// TrainingSession is a training log entry awaiting verification by an
// administrator or range officer.
type TrainingSession struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID           primitive.ObjectID `json:"orgID" bson:"orgID"`
	MemberID        primitive.ObjectID `json:"memberID" bson:"memberID"`
	Date            time.Time          `json:"date" bson:"date"`
	DurationMinutes int                `json:"durationMinutes" bson:"durationMinutes"`
	Discipline      string             `json:"discipline" bson:"discipline"`
	RangeName       string             `json:"rangeName" bson:"rangeName"`
	Notes           string             `json:"notes" bson:"notes"`
	Verified        bool               `json:"verified" bson:"verified"`
	VerifiedBy      string             `json:"verifiedBy" bson:"verifiedBy"`
	VerifiedAt      time.Time          `json:"verifiedAt" bson:"verifiedAt"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// NotificationPreferences are the per-member notification opt-outs, one flag
// per category and channel. Absence of a record means everything enabled.
// Security notifications (account suspension, password changes) are not
// gated by these flags.
type NotificationPreferences struct {
	MemberID          primitive.ObjectID `json:"memberID" bson:"_id"`
	TrainingEmail     bool               `json:"trainingEmail" bson:"trainingEmail"`
	TrainingSMS       bool               `json:"trainingSMS" bson:"trainingSMS"`
	RoleEmail         bool               `json:"roleEmail" bson:"roleEmail"`
	RoleSMS           bool               `json:"roleSMS" bson:"roleSMS"`
	AnnouncementEmail bool               `json:"announcementEmail" bson:"announcementEmail"`
	AnnouncementSMS   bool               `json:"announcementSMS" bson:"announcementSMS"`
}

// DefaultNotificationPreferences returns the all-enabled preference record
// used when a member has never stored preferences.
func DefaultNotificationPreferences(memberID primitive.ObjectID) *NotificationPreferences {
	return &NotificationPreferences{
		MemberID:          memberID,
		TrainingEmail:     true,
		TrainingSMS:       true,
		RoleEmail:         true,
		RoleSMS:           true,
		AnnouncementEmail: true,
		AnnouncementSMS:   true,
	}
}

// PlanLimits are the hard limits of a subscription plan. Zero means
// unlimited.
type PlanLimits struct {
	MaxMembers int `json:"maxMembers" bson:"maxMembers"`
	MaxAdmins  int `json:"maxAdmins" bson:"maxAdmins"`
}

// PlanFeatures are the feature switches of a subscription plan.
type PlanFeatures struct {
	SMSNotifications bool `json:"smsNotifications" bson:"smsNotifications"`
	Announcements    bool `json:"announcements" bson:"announcements"`
}

// Plan is a subscription plan. StripePriceID links the plan to the Stripe
// price object used by the billing webhook.
type Plan struct {
	ID            uint64       `json:"id" bson:"_id"`
	Name          string       `json:"name" bson:"name"`
	StripePriceID string       `json:"stripePriceID" bson:"stripePriceID"`
	Default       bool         `json:"default" bson:"default"`
	Limits        PlanLimits   `json:"limits" bson:"limits"`
	Features      PlanFeatures `json:"features" bson:"features"`
}

// OutboxStatus is the lifecycle state of an outbox record.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxRecipient mirrors the dispatch recipient on the persisted record.
type OutboxRecipient struct {
	ID     string `json:"id" bson:"id"`
	Email  string `json:"email" bson:"email"`
	Number string `json:"number,omitempty" bson:"number,omitempty"`
}

// OutboxRecord is a persisted notification delivery request. Records are
// written before the dispatcher runs so that failures stay observable and
// retryable by an operator instead of vanishing into logs.
type OutboxRecord struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrgID        primitive.ObjectID `json:"orgID" bson:"orgID,omitempty"`
	Status       OutboxStatus       `json:"status" bson:"status"`
	Attempts     int                `json:"attempts" bson:"attempts"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
	Recipient    OutboxRecipient    `json:"to" bson:"to"`
	EmailSubject string             `json:"emailSubject,omitempty" bson:"emailSubject,omitempty"`
	EmailBody    string             `json:"emailBody,omitempty" bson:"emailBody,omitempty"`
	SMSMessage   string             `json:"smsMessage,omitempty" bson:"smsMessage,omitempty"`
	TemplateID   string             `json:"templateId,omitempty" bson:"templateId,omitempty"`
	Parameters   map[string]string  `json:"parameters,omitempty" bson:"parameters,omitempty"`
	// delivery outcome, filled after the dispatcher ran
	Provider       string   `json:"provider,omitempty" bson:"provider,omitempty"`
	MessageID      string   `json:"messageId,omitempty" bson:"messageId,omitempty"`
	ProviderErrors []string `json:"provider_errors,omitempty" bson:"providerErrors,omitempty"`
}
