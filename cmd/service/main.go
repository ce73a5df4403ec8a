package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/clubhub/club-backend/api"
	"github.com/clubhub/club-backend/bridge"
	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/notifications"
	"github.com/clubhub/club-backend/notifications/bird"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/outbox"
	"github.com/clubhub/club-backend/notifications/sendgrid"
	"github.com/clubhub/club-backend/notifications/smtp"
	"github.com/clubhub/club-backend/notifications/templates"
	"github.com/clubhub/club-backend/notifications/twilio"
	"github.com/clubhub/club-backend/stripe"
	"github.com/clubhub/club-backend/subscriptions"
	"go.vocdoni.io/dvote/log"
)

func main() {
	log.Init("debug", "stdout", nil)
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "API secret")
	flag.String("mongo-url", "", "The URL of the MongoDB server")
	flag.String("mongo-db", "club-backend", "The name of the MongoDB database")
	flag.StringP("web-url", "w", "https://app.clubhub.org", "The URL of the web application")
	flag.String("bird-api-key", "", "Bird API access key")
	flag.String("bird-regional-endpoint", bird.DefaultRegionalEndpoint, "Bird regional API endpoint")
	flag.String("bird-global-endpoint", bird.DefaultGlobalEndpoint, "Bird global API endpoint")
	flag.String("email-from-address", "noreply@clubhub.org", "Email service from address")
	flag.String("email-from-name", "ClubHub", "Email service from name")
	flag.String("fallback", "sendgrid", "Fallback email provider (sendgrid or smtp)")
	flag.String("sendgrid-api-key", "", "SendGrid API key")
	flag.String("smtp-server", "", "SMTP server")
	flag.Int("smtp-port", 587, "SMTP port")
	flag.String("smtp-username", "", "SMTP username")
	flag.String("smtp-password", "", "SMTP password")
	flag.String("twilio-account-sid", "", "Twilio account SID (optional SMS override)")
	flag.String("twilio-auth-token", "", "Twilio auth token")
	flag.String("twilio-from-number", "", "Twilio from number")
	flag.String("sms-from-number", "", "Bird SMS originator")
	flag.String("stripe-api-secret", "", "Stripe API secret")
	flag.String("stripe-webhook-secret", "", "Stripe webhook secret")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("CLUBHUB")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	if secret == "" {
		log.Fatal("secret is required")
	}
	mongoURL := viper.GetString("mongo-url")
	mongoDB := viper.GetString("mongo-db")
	webAppURL := viper.GetString("web-url")
	// initialize the MongoDB storage
	database, err := db.New(mongoURL, mongoDB)
	if err != nil {
		log.Fatalf("could not create the MongoDB storage: %v", err)
	}
	defer database.Close()
	// primary notification provider; without an API key the dispatcher
	// reports the missing configuration in-band on every request
	var primary dispatch.Primary
	if apiKey := viper.GetString("bird-api-key"); apiKey != "" {
		client, err := bird.New(&bird.Config{
			APIKey:           apiKey,
			RegionalEndpoint: viper.GetString("bird-regional-endpoint"),
			GlobalEndpoint:   viper.GetString("bird-global-endpoint"),
			FromName:         viper.GetString("email-from-name"),
			FromAddress:      viper.GetString("email-from-address"),
			FromNumber:       viper.GetString("sms-from-number"),
		})
		if err != nil {
			log.Fatalf("could not create the primary notification provider: %v", err)
		}
		primary = client
	} else {
		log.Warnw("no primary provider API key configured")
	}
	// fallback email provider
	var fallback notifications.NotificationService
	fallbackName := viper.GetString("fallback")
	switch fallbackName {
	case "sendgrid":
		fallback = new(sendgrid.Email)
		if err := fallback.Init(&sendgrid.Config{
			APIKey:      viper.GetString("sendgrid-api-key"),
			FromName:    viper.GetString("email-from-name"),
			FromAddress: viper.GetString("email-from-address"),
		}); err != nil {
			log.Fatalf("could not init sendgrid fallback: %v", err)
		}
	case "smtp":
		fallback = new(smtp.Email)
		if err := fallback.Init(&smtp.Config{
			FromName:     viper.GetString("email-from-name"),
			FromAddress:  viper.GetString("email-from-address"),
			SMTPServer:   viper.GetString("smtp-server"),
			SMTPPort:     viper.GetInt("smtp-port"),
			SMTPUsername: viper.GetString("smtp-username"),
			SMTPPassword: viper.GetString("smtp-password"),
		}); err != nil {
			log.Fatalf("could not init smtp fallback: %v", err)
		}
	default:
		log.Fatalf("unknown fallback provider %q", fallbackName)
	}
	// optional twilio SMS override
	var smsOverride notifications.NotificationService
	smsOverrideName := ""
	if sid := viper.GetString("twilio-account-sid"); sid != "" {
		smsOverride = new(twilio.SMS)
		if err := smsOverride.Init(&twilio.Config{
			AccountSid: sid,
			AuthToken:  viper.GetString("twilio-auth-token"),
			FromNumber: viper.GetString("twilio-from-number"),
		}); err != nil {
			log.Fatalf("could not init twilio SMS override: %v", err)
		}
		smsOverrideName = "twilio"
	}
	dispatcher := dispatch.New(&dispatch.Config{
		Primary:         primary,
		Fallback:        fallback,
		FallbackName:    fallbackName,
		SMSOverride:     smsOverride,
		SMSOverrideName: smsOverrideName,
	})
	catalog := templates.NewCatalog(nil)
	subs := subscriptions.New(&subscriptions.Config{DB: database})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// outbox worker
	notificationOutbox := outbox.New(database, dispatcher)
	if err := notificationOutbox.Start(ctx); err != nil {
		log.Fatalf("could not start the notification outbox: %v", err)
	}
	// change feed bridge
	changeBridge := bridge.New(&bridge.Config{
		DB:            database,
		Outbox:        notificationOutbox,
		Subscriptions: subs,
	})
	if err := changeBridge.Start(ctx); err != nil {
		log.Fatalf("could not start the change feed bridge: %v", err)
	}
	// optional stripe billing sync
	var billing *stripe.Service
	if apiSecret := viper.GetString("stripe-api-secret"); apiSecret != "" {
		billing = stripe.New(&stripe.Config{
			APISecret:     apiSecret,
			WebhookSecret: viper.GetString("stripe-webhook-secret"),
			DB:            database,
		})
	}
	// create the local API server
	api.New(&api.Config{
		Host:          host,
		Port:          port,
		Secret:        secret,
		DB:            database,
		Dispatcher:    dispatcher,
		Outbox:        notificationOutbox,
		Catalog:       catalog,
		Subscriptions: subs,
		Stripe:        billing,
		WebAppURL:     webAppURL,
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
