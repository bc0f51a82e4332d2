package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/infra/config"
	idb "renewal_notifier/internal/infra/database"
	"renewal_notifier/internal/infra/logger"
	"renewal_notifier/internal/infra/memstore"
	"renewal_notifier/internal/infra/metrics"
	"renewal_notifier/internal/infra/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// errReadOnlySession is why read-only services have no transports.
var errReadOnlySession = fmt.Errorf("read-only session, reminders are never sent")

// services is one fully wired set of application services.
type services struct {
	Notifications *app.NotificationService
	Subjects      *app.SubjectService
}

// runtime holds everything a command needs. Close releases the database.
type runtime struct {
	cfg          *config.AppConfig
	readOnlyMode bool
	metrics      *metrics.DispatchMetrics
	admin        services
	readOnly     services
	db           *sql.DB
}

// buildRuntime wires the services. When readOnly is set, the admin services are
// backed by the ephemeral store as well and the database is never opened.
func buildRuntime(ctx context.Context, cfg *config.AppConfig, readOnly bool) (*runtime, error) {
	log := logger.WithComponent("wiring")

	registry := prometheus.NewRegistry()
	dispatchMetrics, err := metrics.NewDispatchMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("could not register metrics: %w", err)
	}

	dispatcher := app.NewDispatcher(logger.WithComponent("dispatcher"), dispatchMetrics)
	recipients := app.Recipients{Email: cfg.NotifyTo.Email, WhatsApp: cfg.NotifyTo.WhatsApp}

	rt := &runtime{cfg: cfg, readOnlyMode: readOnly, metrics: dispatchMetrics}
	rt.readOnly = newServices(ephemeralStore(ctx, cfg, log), dispatcher, readOnlyTransports(), recipients)

	if readOnly {
		log.Info("Read-only mode: changes are kept in memory and reminders are never sent")
		rt.admin = rt.readOnly
		return rt, nil
	}

	db, dialect, err := idb.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := idb.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not apply migrations: %w", err)
	}
	log.WithField("dialect", dialect).Info("Database connection established successfully.")

	rt.db = db
	rt.admin = newServices(idb.NewStore(db, dialect), dispatcher, buildTransports(cfg, dispatchMetrics, log), recipients)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close database")
		}
	}
}

func newServices(store app.Persistence, dispatcher *app.Dispatcher, transports app.TransportLookup, recipients app.Recipients) services {
	return services{
		Notifications: app.NewNotificationService(store, dispatcher, transports, recipients, logger.WithComponent("notification_service")),
		Subjects:      app.NewSubjectService(store, logger.WithComponent("subject_service")),
	}
}

// ephemeralStore returns the read-only store, seeded with demo records.
func ephemeralStore(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) *memstore.Store {
	store := memstore.New(cfg.EphemeralTTL, cfg.EphemeralTTL/2)
	if err := memstore.Seed(ctx, store, time.Now()); err != nil {
		log.WithError(err).Warn("Could not seed read-only store, it starts empty")
	}
	return store
}

// buildTransports registers a breaker-wrapped transport per configured channel.
// A channel with missing credentials is disabled and reports why on use.
func buildTransports(cfg *config.AppConfig, m *metrics.DispatchMetrics, log *logrus.Entry) *transport.Set {
	set := transport.NewSet()
	breaker := transport.BreakerSettings{
		FailureThreshold: cfg.BreakerFailureThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		OnStateChange:    m.ObserveBreakerState,
	}
	breakerLog := logger.WithComponent("transport")

	email, err := transport.NewEmailTransport(transport.EmailConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		FromName: cfg.Email.FromName,
	}, logger.WithComponent("email"))
	if err != nil {
		log.WithError(err).Warn("Email channel disabled")
		set.Disable(notification.MethodEmail, err)
	} else {
		set.Register(transport.WithBreaker(email, breaker, breakerLog))
	}

	whatsApp, err := transport.NewWhatsAppTransport(transport.WhatsAppConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.WhatsAppFrom,
	}, logger.WithComponent("whatsapp"))
	if err != nil {
		log.WithError(err).Warn("WhatsApp channel disabled")
		set.Disable(notification.MethodWhatsApp, err)
	} else {
		set.Register(transport.WithBreaker(whatsApp, breaker, breakerLog))
	}

	log.WithField("methods", set.Methods()).Info("Transports initialized")
	return set
}

func readOnlyTransports() *transport.Set {
	set := transport.NewSet()
	set.Disable(notification.MethodEmail, errReadOnlySession)
	set.Disable(notification.MethodWhatsApp, errReadOnlySession)
	return set
}
