package api

import (
	"time"

	"github.com/clubhub/club-backend/db"
)

// OrganizationInfo is the public view of an organization.
type OrganizationInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Color    string `json:"color,omitempty"`
	LogoURL  string `json:"logoURL,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Active   bool   `json:"active"`
	PlanID   uint64 `json:"planID,omitempty"`
}

// UpdateOrganizationRequest carries the branding fields an admin may change.
type UpdateOrganizationRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	LogoURL  string `json:"logoURL" validate:"omitempty,url"`
	Timezone string `json:"timezone"`
}

// AnnouncementRequest is an announcement broadcast to all approved members.
type AnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Link    string `json:"link" validate:"omitempty,url"`
}

// AnnouncementResponse reports how many members the announcement reached.
type AnnouncementResponse struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}

// RegisterMemberRequest is the public member self registration body.
type RegisterMemberRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

// MemberInfo is the public view of an organization member.
type MemberInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

// MembersResponse is the response of the members list endpoint.
type MembersResponse struct {
	Members []*MemberInfo `json:"members"`
}

// UpdateRoleRequest carries the new role for a member.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// CreateTrainingRequest registers a training session for a member.
type CreateTrainingRequest struct {
	MemberID        string    `json:"memberID" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"required,gt=0"`
	Discipline      string    `json:"discipline" validate:"required"`
	RangeName       string    `json:"rangeName"`
	Notes           string    `json:"notes"`
}

// TrainingInfo is the public view of a training session.
type TrainingInfo struct {
	ID              string    `json:"id"`
	MemberID        string    `json:"memberID"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	Discipline      string    `json:"discipline"`
	RangeName       string    `json:"rangeName,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Verified        bool      `json:"verified"`
	VerifiedBy      string    `json:"verifiedBy,omitempty"`
}

// TrainingsResponse is the response of the trainings list endpoint.
type TrainingsResponse struct {
	Trainings []*TrainingInfo `json:"trainings"`
}

// RejectTrainingRequest carries the reason shown to the member.
type RejectTrainingRequest struct {
	Reason string `json:"reason"`
}

// PreferencesRequest mirrors the stored per-channel notification toggles.
type PreferencesRequest struct {
	TrainingEmail     bool `json:"trainingEmail"`
	TrainingSMS       bool `json:"trainingSMS"`
	RoleEmail         bool `json:"roleEmail"`
	RoleSMS           bool `json:"roleSMS"`
	AnnouncementEmail bool `json:"announcementEmail"`
	AnnouncementSMS   bool `json:"announcementSMS"`
}

// PlanInfo is the public view of a subscription plan.
type PlanInfo struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	StripePriceID string          `json:"stripePriceID,omitempty"`
	Default       bool            `json:"default"`
	Limits        db.PlanLimits   `json:"limits"`
	Features      db.PlanFeatures `json:"features"`
}

// PlansResponse is the response of the plans list endpoint.
type PlansResponse struct {
	Plans []*PlanInfo `json:"plans"`
}

// OutboxRecordInfo is the operator view of an outbox record.
type OutboxRecordInfo struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"orgID"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Recipient      string    `json:"recipient"`
	TemplateID     string    `json:"templateId,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	MessageID      string    `json:"messageId,omitempty"`
	ProviderErrors []string  `json:"providerErrors,omitempty"`
}

// OutboxResponse is the response of the outbox list endpoint.
type OutboxResponse struct {
	Records []*OutboxRecordInfo `json:"records"`
}

// LoginResponse is the response of the authentication endpoints.
type LoginResponse struct {
	Token    string    `json:"token"`
	Expirity time.Time `json:"expirity"`
}

func organizationInfo(org *db.Organization) *OrganizationInfo {
	return &OrganizationInfo{
		ID:       org.ID.Hex(),
		Name:     org.Name,
		Slug:     org.Slug,
		Color:    org.Color,
		LogoURL:  org.LogoURL,
		Country:  org.Country,
		Timezone: org.Timezone,
		Active:   org.Active,
		PlanID:   org.Subscription.PlanID,
	}
}

func memberInfo(member *db.Member) *MemberInfo {
	return &MemberInfo{
		ID:        member.ID.Hex(),
		Email:     member.Email,
		FullName:  member.FullName,
		Phone:     member.Phone,
		Role:      string(member.Role),
		Active:    member.Active,
		Approved:  member.Approved,
		CreatedAt: member.CreatedAt,
	}
}

func trainingInfo(session *db.TrainingSession) *TrainingInfo {
	return &TrainingInfo{
		ID:              session.ID.Hex(),
		MemberID:        session.MemberID.Hex(),
		Date:            session.Date,
		DurationMinutes: session.DurationMinutes,
		Discipline:      session.Discipline,
		RangeName:       session.RangeName,
		Notes:           session.Notes,
		Verified:        session.Verified,
		VerifiedBy:      session.VerifiedBy,
	}
}

func outboxRecordInfo(record *db.OutboxRecord) *OutboxRecordInfo {
	info := &OutboxRecordInfo{
		ID:             record.ID.Hex(),
		OrgID:          record.OrgID.Hex(),
		Status:         string(record.Status),
		Attempts:       record.Attempts,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		TemplateID:     record.TemplateID,
		Provider:       record.Provider,
		MessageID:      record.MessageID,
		ProviderErrors: record.ProviderErrors,
	}
	if record.Recipient.Email != "" {
		info.Recipient = record.Recipient.Email
	} else {
		info.Recipient = record.Recipient.Number
	}
	return info
}
