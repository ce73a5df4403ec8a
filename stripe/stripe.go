// Package stripe keeps organization subscriptions in sync with the Stripe
// billing service. Only the webhook side is implemented here: checkout and
// the billing portal live in the web application, the backend just reacts to
// subscription lifecycle events.
package stripe

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/clubhub/club-backend/db"
	"go.vocdoni.io/dvote/log"
)

// Config holds the Stripe credentials and the storage the service writes to.
type Config struct {
	APISecret     string
	WebhookSecret string
	DB            *db.MongoStorage
}

// Service processes Stripe webhook events and updates organization
// subscriptions accordingly.
type Service struct {
	db            *db.MongoStorage
	webhookSecret string
	// processedEvents gives webhook handling idempotency across Stripe's
	// at-least-once delivery.
	processedEvents sync.Map
}

// New creates the Stripe service and sets the global API key.
func New(conf *Config) *Service {
	if conf == nil {
		return nil
	}
	stripeapi.Key = conf.APISecret
	return &Service{
		db:            conf.DB,
		webhookSecret: conf.WebhookSecret,
	}
}

// SubscriptionInfo is the slice of a Stripe subscription event the
// application cares about.
type SubscriptionInfo struct {
	ID         string
	Status     stripeapi.SubscriptionStatus
	CustomerID string
	PriceID    string
	OrgID      string
	StartDate  time.Time
	EndDate    time.Time
}

// HandleWebhookEvent validates the webhook signature, decodes the event and
// processes it. Events already seen are skipped.
func (s *Service) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	event, err := stripewebhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}
	if _, alreadyProcessed := s.processedEvents.Load(event.ID); alreadyProcessed {
		log.Debugw("stripe event already processed", "eventID", event.ID)
		return nil
	}
	if err := s.handleEvent(&event); err != nil {
		return err
	}
	s.processedEvents.Store(event.ID, time.Now())
	return nil
}

func (s *Service) handleEvent(event *stripeapi.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		info, err := subscriptionInfoFromEvent(event)
		if err != nil {
			return err
		}
		return s.applySubscription(info, info.Status == stripeapi.SubscriptionStatusActive ||
			info.Status == stripeapi.SubscriptionStatusTrialing)
	case "customer.subscription.deleted":
		info, err := subscriptionInfoFromEvent(event)
		if err != nil {
			return err
		}
		return s.applySubscription(info, false)
	default:
		log.Debugw("ignoring stripe event", "type", event.Type)
		return nil
	}
}

// applySubscription resolves the plan behind the subscription price and
// stores the resulting subscription state on the organization.
func (s *Service) applySubscription(info *SubscriptionInfo, active bool) error {
	org, err := s.organizationFor(info)
	if err != nil {
		return err
	}
	plan, err := s.db.PlanByStripePriceID(info.PriceID)
	if err != nil {
		return fmt.Errorf("no plan for stripe price %s: %w", info.PriceID, err)
	}
	sub := &db.OrganizationSubscription{
		PlanID:      plan.ID,
		StripeID:    info.ID,
		StartDate:   info.StartDate,
		RenewalDate: info.EndDate,
		Active:      active,
	}
	if err := s.db.SetOrganizationSubscription(org.ID, sub); err != nil {
		return fmt.Errorf("could not store subscription: %w", err)
	}
	log.Infow("organization subscription updated",
		"orgID", org.ID.Hex(), "planID", plan.ID, "active", active)
	return nil
}

// organizationFor locates the organization behind a subscription event,
// first via the orgID subscription metadata set at checkout, then via the
// Stripe customer already linked to an organization.
func (s *Service) organizationFor(info *SubscriptionInfo) (*db.Organization, error) {
	if info.OrgID != "" {
		org, err := s.db.OrganizationBySlug(info.OrgID)
		if err == nil {
			return org, nil
		}
	}
	if info.ID != "" {
		org, err := s.db.OrganizationByStripeID(info.ID)
		if err == nil {
			return org, nil
		}
	}
	return nil, fmt.Errorf("no organization for subscription %s", info.ID)
}

func subscriptionInfoFromEvent(event *stripeapi.Event) (*SubscriptionInfo, error) {
	var subscription stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return nil, fmt.Errorf("error parsing webhook JSON: %w", err)
	}
	if len(subscription.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s does not contain any items", subscription.ID)
	}
	info := &SubscriptionInfo{
		ID:        subscription.ID,
		Status:    subscription.Status,
		PriceID:   subscription.Items.Data[0].Price.ID,
		OrgID:     subscription.Metadata["orgID"],
		StartDate: time.Unix(subscription.CurrentPeriodStart, 0),
		EndDate:   time.Unix(subscription.CurrentPeriodEnd, 0),
	}
	if subscription.Customer != nil {
		info.CustomerID = subscription.Customer.ID
	}
	return info, nil
}
