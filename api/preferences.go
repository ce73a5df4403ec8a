package api

import (
	"encoding/json"
	"net/http"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/errors"
)

// preferencesHandler returns the notification preferences of a member. When
// the member never stored preferences, the all-enabled defaults are
// returned.
func (a *API) preferencesHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	member, ok := a.memberFromRequest(r, org)
	if !ok {
		errors.ErrMemberNotFound.Write(w)
		return
	}
	prefs, err := a.db.NotificationPreferencesOrDefault(member.ID)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, prefs)
}

// updatePreferencesHandler replaces the stored notification preferences of a
// member.
func (a *API) updatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	member, ok := a.memberFromRequest(r, org)
	if !ok {
		errors.ErrMemberNotFound.Write(w)
		return
	}
	req := &PreferencesRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	prefs := &db.NotificationPreferences{
		MemberID:          member.ID,
		TrainingEmail:     req.TrainingEmail,
		TrainingSMS:       req.TrainingSMS,
		RoleEmail:         req.RoleEmail,
		RoleSMS:           req.RoleSMS,
		AnnouncementEmail: req.AnnouncementEmail,
		AnnouncementSMS:   req.AnnouncementSMS,
	}
	if err := a.db.SetNotificationPreferences(prefs); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, prefs)
}
