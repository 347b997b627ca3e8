package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/calendar"
	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/logger"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/notify"
	"healthcare-booking-server/internal/rating"
	"healthcare-booking-server/internal/reminder"
	"healthcare-booking-server/internal/reviews"
	"healthcare-booking-server/internal/storage"
	"healthcare-booking-server/internal/store"
	"healthcare-booking-server/internal/store/memstore"
	"healthcare-booking-server/internal/store/mongostore"
	"healthcare-booking-server/internal/store/sqlstore"
)

const handlerTimeout = 30 * time.Second

// app holds the wired services shared by every command.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	metrics *metrics.Metrics
	queue   *dispatch.Queue
	policy  *access.Policy
	ics     *calendar.AppleSyncer

	accounts *accounts.Service
	bookings *booking.Service
	reviews  *reviews.Service
	scanner  *reminder.Scanner
}

// bootstrap loads configuration, opens the store and wires the services.
// The dispatch queue is built with its subscribers but not started.
func bootstrap(ctx context.Context) (*app, error) {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	a := &app{cfg: cfg, log: log, store: s, metrics: metrics.New()}
	a.queue = dispatch.NewQueue(log, a.metrics, dispatch.Options{
		Workers:        cfg.DispatchWorkers,
		QueueSize:      cfg.DispatchQueueSize,
		HandlerTimeout: handlerTimeout,
	})

	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load CALENDAR_TIMEZONE: %w", err)
	}
	a.ics = calendar.NewAppleSyncer(originHost(cfg.Origin), loc)

	if err := a.wireSideEffects(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	files, err := fileStore(cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	a.policy = access.NewPolicy(s.Doctors)
	a.accounts = accounts.NewService(s, a.policy, a.queue, files, accounts.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.JWTExpirationMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshExpirationDays) * 24 * time.Hour,
	}, log)
	a.bookings = booking.NewService(s, a.policy, a.queue, a.metrics, log)
	a.reviews = reviews.NewService(s, a.policy, rating.NewAggregator(s.Reviews, s.Doctors), a.queue, cfg.ReviewAutoApprove, log)
	a.scanner = reminder.NewScanner(s.Appointments, a.queue, a.metrics, log)
	return a, nil
}

// wireSideEffects registers the email, in-app and calendar subscribers.
func (a *app) wireSideEffects(ctx context.Context) error {
	var sender notify.EmailSender = notify.LogSender{Log: a.log}
	if a.cfg.Mailer.Host != "" {
		smtp, err := notify.NewSMTPSender(a.cfg.Mailer)
		if err != nil {
			return err
		}
		sender = smtp
	} else {
		a.log.Warn().Msg("SMTP_HOST not set, emails are logged instead of sent")
	}
	notify.NewNotifier(a.store, sender, a.cfg.Origin, a.log).Register(a.queue)

	var google calendar.EventClient
	g, err := calendar.NewGoogleSyncer(ctx, a.cfg.Google)
	if err != nil {
		return err
	}
	if g != nil {
		google = g
	} else {
		a.log.Info().Msg("google calendar sync disabled")
	}
	calendar.NewSync(google, a.ics, a.store.Appointments, a.log).Register(a.queue)
	return nil
}

// close drains the dispatch queue and releases the store.
func (a *app) close(ctx context.Context) {
	if err := a.queue.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("dispatch queue did not drain")
	}
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.DatabaseName)
	case config.DriverMySQL:
		return sqlstore.Open(sqlstore.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		})
	default:
		return memstore.New(), nil
	}
}

func fileStore(cfg *config.Config) (accounts.FileStore, error) {
	cld, err := storage.New(cfg.Cloudinary)
	if errors.Is(err, storage.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cld, nil
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
