// Package subscriptions enforces the plan limits of an organization: how
// many members it can hold and which notification features are available.
package subscriptions

import (
	"github.com/clubhub/club-backend/db"
)

// Config holds the configuration for the subscriptions service.
type Config struct {
	DB *db.MongoStorage
}

// Subscriptions is the service that resolves an organization's plan and
// answers permission questions against its limits and features.
type Subscriptions struct {
	db *db.MongoStorage
}

// New creates a new Subscriptions service with the given configuration.
func New(conf *Config) *Subscriptions {
	if conf == nil {
		return nil
	}
	return &Subscriptions{db: conf.DB}
}

// plan resolves the organization plan, falling back to the default plan when
// the organization has no active subscription.
func (s *Subscriptions) plan(org *db.Organization) (*db.Plan, error) {
	if org.Subscription.Active && org.Subscription.PlanID != 0 {
		return s.db.Plan(org.Subscription.PlanID)
	}
	return s.db.DefaultPlan()
}

// CanAddMember checks whether the organization can register one more member
// under its plan. A zero member limit means unlimited.
func (s *Subscriptions) CanAddMember(org *db.Organization) (bool, error) {
	plan, err := s.plan(org)
	if err != nil {
		return false, err
	}
	if plan.Limits.MaxMembers <= 0 {
		return true, nil
	}
	return org.Counters.Members < plan.Limits.MaxMembers, nil
}

// HasSMSNotifications checks whether the organization plan includes the SMS
// notification channel.
func (s *Subscriptions) HasSMSNotifications(org *db.Organization) bool {
	plan, err := s.plan(org)
	if err != nil {
		return false
	}
	return plan.Features.SMSNotifications
}

// HasAnnouncements checks whether the organization plan includes broadcast
// announcements.
func (s *Subscriptions) HasAnnouncements(org *db.Organization) bool {
	plan, err := s.plan(org)
	if err != nil {
		return false
	}
	return plan.Features.Announcements
}
