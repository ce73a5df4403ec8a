package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/errors"
	"github.com/clubhub/club-backend/internal"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/templates"
	"go.vocdoni.io/dvote/log"
)

// createTrainingHandler registers an unverified training session for a
// member of the organization.
func (a *API) createTrainingHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	req := &CreateTrainingRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := a.validator.Validate(req); err != nil {
		errors.ErrInvalidTrainingData.WithErr(err).Write(w)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		errors.ErrInvalidTrainingData.With("invalid member id").Write(w)
		return
	}
	member, err := a.db.Member(memberID)
	if err != nil || member.OrgID != org.ID {
		errors.ErrMemberNotFound.Write(w)
		return
	}
	session := &db.TrainingSession{
		OrgID:           org.ID,
		MemberID:        member.ID,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Discipline:      req.Discipline,
		RangeName:       req.RangeName,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
	}
	if _, err := a.db.SetTrainingSession(session); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, trainingInfo(session))
}

// trainingsHandler lists the training sessions of the organization, or of a
// single member when the member query parameter is present.
func (a *API) trainingsHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	var sessions []*db.TrainingSession
	var err error
	if rawMemberID := r.URL.Query().Get("member"); rawMemberID != "" {
		memberID, parseErr := primitive.ObjectIDFromHex(rawMemberID)
		if parseErr != nil {
			errors.ErrMalformedURLParam.With("invalid member id").Write(w)
			return
		}
		sessions, err = a.db.MemberTrainingSessions(memberID)
	} else {
		sessions, err = a.db.TrainingSessions(org.ID)
	}
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	response := &TrainingsResponse{Trainings: []*TrainingInfo{}}
	for _, session := range sessions {
		response.Trainings = append(response.Trainings, trainingInfo(session))
	}
	httpWriteJSON(w, response)
}

// verifyTrainingHandler marks a training session as verified by the calling
// officer. The member notification is produced by the change feed.
func (a *API) verifyTrainingHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	session, ok := a.trainingFromRequest(r, org)
	if !ok {
		errors.ErrTrainingNotFound.Write(w)
		return
	}
	if session.Verified {
		httpWriteOK(w)
		return
	}
	verifiedBy := r.Header.Get("X-User-Id")
	if verifiedBy == "" {
		errors.ErrUnauthorized.Write(w)
		return
	}
	if err := a.db.VerifyTrainingSession(session.ID, verifiedBy); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// rejectTrainingHandler removes an unverified training session and queues
// the rejection email with the officer's reason. Verified sessions cannot be
// rejected.
func (a *API) rejectTrainingHandler(w http.ResponseWriter, r *http.Request) {
	org, ok := a.organizationFromRequest(r)
	if !ok {
		errors.ErrOrganizationNotFound.Write(w)
		return
	}
	session, ok := a.trainingFromRequest(r, org)
	if !ok {
		errors.ErrTrainingNotFound.Write(w)
		return
	}
	if session.Verified {
		errors.ErrInvalidTrainingData.With("session already verified").Write(w)
		return
	}
	req := &RejectTrainingRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	member, err := a.db.Member(session.MemberID)
	if err != nil {
		errors.ErrMemberNotFound.Write(w)
		return
	}
	if err := a.db.DelTrainingSession(session.ID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if err := a.enqueueTemplateEmail(org, member, templates.TrainingRejected, dispatch.Parameters{
		"name":       member.FullName,
		"orgName":    org.Name,
		"date":       internal.FormatDate(session.Date),
		"discipline": db.DisciplineName(session.Discipline),
		"reason":     req.Reason,
	}); err != nil {
		log.Warnw("could not queue rejection email", "error", err)
	}
	httpWriteOK(w)
}
