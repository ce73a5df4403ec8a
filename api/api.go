// Package api provides the HTTP API for the club backend: member and
// training management per organization, notification preferences, the
// notification dispatch and outbox operator surface, and the Stripe webhook.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/outbox"
	"github.com/clubhub/club-backend/notifications/templates"
	"github.com/clubhub/club-backend/stripe"
	"github.com/clubhub/club-backend/subscriptions"
	"github.com/clubhub/club-backend/validator"
	"go.vocdoni.io/dvote/log"
)

// Config holds the configuration and dependencies of the API server.
type Config struct {
	Host          string
	Port          int
	Secret        string
	DB            *db.MongoStorage
	Dispatcher    *dispatch.Dispatcher
	Outbox        *outbox.Outbox
	Catalog       *templates.Catalog
	Subscriptions *subscriptions.Subscriptions
	Stripe        *stripe.Service
	WebAppURL     string
}

// API type represents the API HTTP server with JWT authentication capabilities.
type API struct {
	db            *db.MongoStorage
	auth          *jwtauth.JWTAuth
	host          string
	port          int
	router        *chi.Mux
	dispatcher    *dispatch.Dispatcher
	outbox        *outbox.Outbox
	catalog       *templates.Catalog
	subscriptions *subscriptions.Subscriptions
	stripe        *stripe.Service
	validator     *validator.Validator
	webAppURL     string
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	catalog := conf.Catalog
	if catalog == nil {
		catalog = templates.NewCatalog(nil)
	}
	return &API{
		db:            conf.DB,
		auth:          jwtauth.New("HS256", []byte(conf.Secret), nil),
		host:          conf.Host,
		port:          conf.Port,
		dispatcher:    conf.Dispatcher,
		outbox:        conf.Outbox,
		catalog:       catalog,
		subscriptions: conf.Subscriptions,
		stripe:        conf.Stripe,
		validator:     validator.New(),
		webAppURL:     conf.WebAppURL,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	// protected routes
	r.Group(func(r chi.Router) {
		// seek, verify and validate JWT tokens
		r.Use(jwtauth.Verifier(a.auth))
		// handle valid JWT tokens
		r.Use(a.authenticator)
		// dispatch a notification synchronously
		log.Infow("new route", "method", "POST", "path", notificationsDispatchEndpoint)
		r.Post(notificationsDispatchEndpoint, a.dispatchNotificationHandler)
		// list outbox records
		log.Infow("new route", "method", "GET", "path", notificationsOutboxEndpoint)
		r.Get(notificationsOutboxEndpoint, a.outboxListHandler)
		// retry a failed outbox record
		log.Infow("new route", "method", "POST", "path", notificationsOutboxRetryEndpoint)
		r.Post(notificationsOutboxRetryEndpoint, a.outboxRetryHandler)
		// reload templates from disk
		log.Infow("new route", "method", "POST", "path", templatesReloadEndpoint)
		r.Post(templatesReloadEndpoint, a.templatesReloadHandler)
		// get organization information
		log.Infow("new route", "method", "GET", "path", organizationEndpoint)
		r.Get(organizationEndpoint, a.organizationInfoHandler)
		// update organization branding
		log.Infow("new route", "method", "PUT", "path", organizationEndpoint)
		r.Put(organizationEndpoint, a.updateOrganizationHandler)
		// broadcast an announcement to the organization members
		log.Infow("new route", "method", "POST", "path", organizationAnnouncementEndpoint)
		r.Post(organizationAnnouncementEndpoint, a.announcementHandler)
		// list organization members
		log.Infow("new route", "method", "GET", "path", organizationMembersEndpoint)
		r.Get(organizationMembersEndpoint, a.membersHandler)
		// get member information
		log.Infow("new route", "method", "GET", "path", organizationMemberEndpoint)
		r.Get(organizationMemberEndpoint, a.memberInfoHandler)
		// approve a pending member
		log.Infow("new route", "method", "POST", "path", organizationMemberApproveEndpoint)
		r.Post(organizationMemberApproveEndpoint, a.approveMemberHandler)
		// update member role
		log.Infow("new route", "method", "PUT", "path", organizationMemberRoleEndpoint)
		r.Put(organizationMemberRoleEndpoint, a.updateMemberRoleHandler)
		// deactivate a member
		log.Infow("new route", "method", "POST", "path", organizationMemberDeactivateEndpoint)
		r.Post(organizationMemberDeactivateEndpoint, a.deactivateMemberHandler)
		// delete a member
		log.Infow("new route", "method", "DELETE", "path", organizationMemberEndpoint)
		r.Delete(organizationMemberEndpoint, a.deleteMemberHandler)
		// get member notification preferences
		log.Infow("new route", "method", "GET", "path", organizationMemberPreferencesEndpoint)
		r.Get(organizationMemberPreferencesEndpoint, a.preferencesHandler)
		// update member notification preferences
		log.Infow("new route", "method", "PUT", "path", organizationMemberPreferencesEndpoint)
		r.Put(organizationMemberPreferencesEndpoint, a.updatePreferencesHandler)
		// register a training session
		log.Infow("new route", "method", "POST", "path", organizationTrainingsEndpoint)
		r.Post(organizationTrainingsEndpoint, a.createTrainingHandler)
		// list organization training sessions
		log.Infow("new route", "method", "GET", "path", organizationTrainingsEndpoint)
		r.Get(organizationTrainingsEndpoint, a.trainingsHandler)
		// verify a training session
		log.Infow("new route", "method", "POST", "path", organizationTrainingVerifyEndpoint)
		r.Post(organizationTrainingVerifyEndpoint, a.verifyTrainingHandler)
		// reject a training session
		log.Infow("new route", "method", "POST", "path", organizationTrainingRejectEndpoint)
		r.Post(organizationTrainingRejectEndpoint, a.rejectTrainingHandler)
	})

	// public routes
	r.Group(func(r chi.Router) {
		// healthcheck
		log.Infow("new route", "method", "GET", "path", pingEndpoint)
		r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
			httpWriteOK(w)
		})
		// member self registration
		log.Infow("new route", "method", "POST", "path", organizationRegisterEndpoint)
		r.Post(organizationRegisterEndpoint, a.registerMemberHandler)
		// list subscription plans
		log.Infow("new route", "method", "GET", "path", plansEndpoint)
		r.Get(plansEndpoint, a.plansHandler)
		// stripe webhook
		log.Infow("new route", "method", "POST", "path", stripeWebhookEndpoint)
		r.Post(stripeWebhookEndpoint, a.stripeWebhookHandler)
	})

	a.router = r
	return r
}
