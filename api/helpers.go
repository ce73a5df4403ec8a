package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/templates"
	"go.vocdoni.io/dvote/log"
)

// organizationFromRequest helper function allows to get the organization
// related to the request provided. It gets the organization slug from the URL
// parameters and retrieves the organization from the database.
func (a *API) organizationFromRequest(r *http.Request) (*db.Organization, bool) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		return nil, false
	}
	org, err := a.db.OrganizationBySlug(slug)
	if err != nil {
		return nil, false
	}
	return org, true
}

// memberFromRequest resolves the member from the memberID URL parameter and
// checks it belongs to the given organization.
func (a *API) memberFromRequest(r *http.Request, org *db.Organization) (*db.Member, bool) {
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		return nil, false
	}
	member, err := a.db.Member(memberID)
	if err != nil || member.OrgID != org.ID {
		return nil, false
	}
	return member, true
}

// trainingFromRequest resolves the training session from the trainingID URL
// parameter and checks it belongs to the given organization.
func (a *API) trainingFromRequest(r *http.Request, org *db.Organization) (*db.TrainingSession, bool) {
	trainingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "trainingID"))
	if err != nil {
		return nil, false
	}
	session, err := a.db.TrainingSession(trainingID)
	if err != nil || session.OrgID != org.ID {
		return nil, false
	}
	return session, true
}

// enqueueTemplateEmail renders an email template from the catalog and hands
// the result to the outbox as an inline email request. Inline requests stay
// fallback-compatible because the rendered body travels with them.
func (a *API) enqueueTemplateEmail(org *db.Organization, member *db.Member,
	kind templates.Kind, params dispatch.Parameters,
) error {
	rendered, err := a.catalog.Render(kind, params)
	if err != nil {
		return err
	}
	_, err = a.outbox.Enqueue(org.ID, &dispatch.Request{
		To: dispatch.Recipient{ID: member.ID.Hex(), Email: member.Email},
		Email: &dispatch.EmailPayload{
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
		},
	})
	return err
}

// makeToken creates a JWT token for the given user identifier.
// The token is signed with the API secret, following the JWT specification.
// The token is valid for the period specified on jwtExpiration constant.
func (a *API) makeToken(id string) (*LoginResponse, error) {
	j := jwt.New()
	if err := j.Set("userId", id); err != nil {
		return nil, err
	}
	if err := j.Set(jwt.ExpirationKey, time.Now().Add(jwtExpiration).UnixNano()); err != nil {
		return nil, err
	}
	lr := LoginResponse{}
	lr.Expirity = time.Now().Add(jwtExpiration)
	jmap, err := j.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	_, lr.Token, _ = a.auth.Encode(jmap)
	return &lr, nil
}

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}
