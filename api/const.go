package api

import "time"

// jwtExpiration is the validity period of issued JWT tokens.
const jwtExpiration = 360 * time.Hour // 15 days

const (
	// pingEndpoint healthcheck
	pingEndpoint = "/ping"
	// notificationsDispatchEndpoint dispatches a notification request
	// synchronously and returns the delivery result in the body
	notificationsDispatchEndpoint = "/notifications/dispatch"
	// notificationsOutboxEndpoint lists outbox records
	notificationsOutboxEndpoint = "/notifications/outbox"
	// notificationsOutboxRetryEndpoint requeues a failed outbox record
	notificationsOutboxRetryEndpoint = "/notifications/outbox/{recordID}/retry"
	// templatesReloadEndpoint drops the rendered template cache
	templatesReloadEndpoint = "/notifications/templates/reload"
	// organizationEndpoint gets or updates a single organization
	organizationEndpoint = "/organizations/{slug}"
	// organizationAnnouncementEndpoint broadcasts an announcement
	organizationAnnouncementEndpoint = "/organizations/{slug}/announcements"
	// organizationRegisterEndpoint public member self registration
	organizationRegisterEndpoint = "/organizations/{slug}/register"
	// organizationMembersEndpoint lists organization members
	organizationMembersEndpoint = "/organizations/{slug}/members"
	// organizationMemberEndpoint gets or deletes a single member
	organizationMemberEndpoint = "/organizations/{slug}/members/{memberID}"
	// organizationMemberApproveEndpoint approves a pending member
	organizationMemberApproveEndpoint = "/organizations/{slug}/members/{memberID}/approve"
	// organizationMemberRoleEndpoint updates a member role
	organizationMemberRoleEndpoint = "/organizations/{slug}/members/{memberID}/role"
	// organizationMemberDeactivateEndpoint deactivates a member
	organizationMemberDeactivateEndpoint = "/organizations/{slug}/members/{memberID}/deactivate"
	// organizationMemberPreferencesEndpoint member notification preferences
	organizationMemberPreferencesEndpoint = "/organizations/{slug}/members/{memberID}/preferences"
	// organizationTrainingsEndpoint creates or lists training sessions
	organizationTrainingsEndpoint = "/organizations/{slug}/trainings"
	// organizationTrainingVerifyEndpoint verifies a training session
	organizationTrainingVerifyEndpoint = "/organizations/{slug}/trainings/{trainingID}/verify"
	// organizationTrainingRejectEndpoint rejects a training session
	organizationTrainingRejectEndpoint = "/organizations/{slug}/trainings/{trainingID}/reject"
	// plansEndpoint lists the available subscription plans
	plansEndpoint = "/plans"
	// stripeWebhookEndpoint receives Stripe webhook events
	stripeWebhookEndpoint = "/stripe/webhook"
)
