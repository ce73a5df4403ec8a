package api

import (
	"encoding/json"
	"net/http"

	"github.com/clubhub/club-backend/bridge"
	"github.com/clubhub/club-backend/errors"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/templates"
	"go.vocdoni.io/dvote/log"
)

// organizationInfoHandler returns the organization behind the slug URL
// parameter.
func (a *API) organizationInfoHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	httpWriteJSON(w, organizationInfo(org))
}

// updateOrganizationHandler updates the organization branding fields. Only
// the fields present in the request are changed.
func (a *API) updateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	req := &UpdateOrganizationRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.validator.Validate(req); err != nil {
		errors.ErrInvalidOrganizationData.WithErr(err).Write(w)
		return
	}
	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Color != "" {
		org.Color = req.Color
	}
	if req.LogoURL != "" {
		org.LogoURL = req.LogoURL
	}
	if req.Timezone != "" {
		org.Timezone = req.Timezone
	}
	if _, err := a.db.SetOrganization(org); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, organizationInfo(org))
}

// announcementHandler broadcasts an announcement to every approved member of
// the organization, honoring each member's announcement preferences. The
// feature is plan gated.
func (a *API) announcementHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	if a.subscriptions != nil && !a.subscriptions.HasAnnouncements(org) {
		errors.ErrFeatureNotAvailable.With("announcements not included in plan").Write(w)
		return
	}
	req := &AnnouncementRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.validator.Validate(req); err != nil {
		errors.ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	members, err := a.db.ApprovedMembers(org.ID)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	smsAvailable := a.subscriptions == nil || a.subscriptions.HasSMSNotifications(org)
	response := &AnnouncementResponse{}
	for _, member := range members {
		if !member.Active {
			response.Skipped++
			continue
		}
		emailEnabled, smsEnabled := bridge.AllowedChannels(a.db, member.ID, bridge.CategoryAnnouncement)
		if !emailEnabled && !smsEnabled {
			response.Skipped++
			continue
		}
		params := dispatch.Parameters{
			"name":    member.FullName,
			"orgName": org.Name,
			"title":   req.Title,
			"message": req.Message,
			"link":    req.Link,
		}
		queued := false
		if emailEnabled {
			if err := a.enqueueTemplateEmail(org, member, templates.OrgAnnouncement, params); err != nil {
				log.Warnw("could not queue announcement email",
					"memberID", member.ID.Hex(), "error", err)
			} else {
				queued = true
			}
		}
		if smsEnabled && smsAvailable && member.Phone != "" {
			_, err := a.outbox.Enqueue(org.ID, &dispatch.Request{
				To:  dispatch.Recipient{ID: member.ID.Hex(), Number: member.Phone},
				SMS: &dispatch.SMSPayload{Message: org.Name + ": " + req.Title},
			})
			if err != nil {
				log.Warnw("could not queue announcement SMS",
					"memberID", member.ID.Hex(), "error", err)
			} else {
				queued = true
			}
		}
		if queued {
			response.Queued++
		} else {
			response.Skipped++
		}
	}
	httpWriteJSON(w, response)
}
