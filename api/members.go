package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/errors"
	"github.com/clubhub/club-backend/internal"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/templates"
	"go.vocdoni.io/dvote/log"
)

// registerMemberHandler handles the public member self registration. The new
// member starts out unapproved; an admin has to approve it before it shows
// up as a club member. A welcome email confirming the pending state is
// queued right away.
func (a *API) registerMemberHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	req := &RegisterMemberRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.validator.Validate(req); err != nil {
		errors.ErrInvalidMemberData.WithErr(err).Write(w)
		return
	}
	if !internal.ValidEmail(req.Email) {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	phone := req.Phone
	if phone != "" {
		sanitized, err := internal.SanitizeAndVerifyPhoneNumber(phone)
		if err != nil {
			errors.ErrInvalidMemberData.Withf("invalid phone number: %v", err).Write(w)
			return
		}
		phone = sanitized
	}
	if a.subscriptions != nil {
		ok, err := a.subscriptions.CanAddMember(org)
		if err != nil {
			errors.ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		if !ok {
			errors.ErrMemberLimitReached.Write(w)
			return
		}
	}
	member := &db.Member{
		OrgID:     org.ID,
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     phone,
		Role:      db.MemberRoleMember,
		Active:    true,
		Approved:  false,
		CreatedAt: time.Now(),
	}
	if _, err := a.db.SetMember(member); err != nil {
		if err == db.ErrInvalidData {
			errors.ErrDuplicateConflict.With("member already registered").Write(w)
			return
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if err := a.db.IncrementOrganizationCounters(org.ID, 1, 0, 0); err != nil {
		log.Warnw("could not update member counter", "orgID", org.ID.Hex(), "error", err)
	}
	if err := a.enqueueTemplateEmail(org, member, templates.MemberWelcomePending, dispatch.Parameters{
		"name":    member.FullName,
		"orgName": org.Name,
	}); err != nil {
		log.Warnw("could not queue welcome email", "error", err)
	}
	httpWriteOK(w)
}

// membersHandler lists the members of an organization. With approved=true it
// only returns approved members.
func (a *API) membersHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	var members []*db.Member
	var err error
	if r.URL.Query().Get("approved") == "true" {
		members, err = a.db.ApprovedMembers(org.ID)
	} else {
		members, err = a.db.Members(org.ID)
	}
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	response := &MembersResponse{Members: []*MemberInfo{}}
	for _, member := range members {
		response.Members = append(response.Members, memberInfo(member))
	}
	httpWriteJSON(w, response)
}

// memberInfoHandler returns a single member.
func (a *API) memberInfoHandler(w http.ResponseWriter, r *http.Request) {
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
	httpWriteJSON(w, memberInfo(member))
}

// approveMemberHandler approves a pending member and queues the approval
// email. Approving an already approved member is a no-op.
func (a *API) approveMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	if member.Approved {
		httpWriteOK(w)
		return
	}
	if err := a.db.ApproveMember(member.ID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if err := a.enqueueTemplateEmail(org, member, templates.MemberApproved, dispatch.Parameters{
		"name":    member.FullName,
		"orgName": org.Name,
		"link":    a.webAppURL,
	}); err != nil {
		log.Warnw("could not queue approval email", "error", err)
	}
	httpWriteOK(w)
}

// updateMemberRoleHandler updates the member role. The change notification
// is produced by the change feed, not here.
func (a *API) updateMemberRoleHandler(w http.ResponseWriter, r *http.Request) {
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
	req := &UpdateRoleRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	role := db.MemberRole(req.Role)
	if !db.IsValidMemberRole(role) {
		errors.ErrInvalidRole.Withf("unknown role %q", req.Role).Write(w)
		return
	}
	if err := a.db.SetMemberRole(member.ID, role); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// deactivateMemberHandler suspends a member account. The suspension
// notification is produced by the change feed.
func (a *API) deactivateMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := a.db.SetMemberActive(member.ID, false); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// deleteMemberHandler removes a member and its notification preferences.
func (a *API) deleteMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := a.db.DelMember(member.ID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if err := a.db.IncrementOrganizationCounters(org.ID, -1, 0, 0); err != nil {
		log.Warnw("could not update member counter", "orgID", org.ID.Hex(), "error", err)
	}
	httpWriteOK(w)
}
