package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/auth"
	authPostgres "github.com/frahmantamala/event-scheduler/internal/auth/postgres"
	"github.com/frahmantamala/event-scheduler/internal/core/events"
	"github.com/frahmantamala/event-scheduler/internal/database"
	"github.com/frahmantamala/event-scheduler/internal/event"
	eventPostgres "github.com/frahmantamala/event-scheduler/internal/event/postgres"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	rbacPostgres "github.com/frahmantamala/event-scheduler/internal/rbac/postgres"
	"github.com/frahmantamala/event-scheduler/internal/user"
	userPostgres "github.com/frahmantamala/event-scheduler/internal/user/postgres"
	"github.com/frahmantamala/event-scheduler/internal/webhook"
	"github.com/frahmantamala/event-scheduler/pkg/logger"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// application holds the services every command shares.
type application struct {
	Config *internal.Config
	Logger *slog.Logger
	DB     *gorm.DB
	SQLX   *sqlx.DB
	Bus    *events.Bus

	// Webhook is nil unless a webhook url is configured.
	Webhook *webhook.Client

	Hasher    *auth.BcryptHasher
	Auth      *auth.Service
	Gate      *auth.Gate
	RBAC      *rbac.Service
	Users     *user.Service
	Events    *event.Service
	Lifecycle *event.LifecycleService
}

func newApplication(cfg *internal.Config) (*application, error) {
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlxDB, err := database.SQLX(db)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap database: %w", err)
	}

	bus := events.NewBus(lg)
	audit := events.AuditLogger(lg)
	for _, topic := range events.LifecycleTopics() {
		bus.Subscribe(topic, audit)
	}

	var hook *webhook.Client
	if cfg.Webhook.URL != "" {
		hook = webhook.NewClient(webhook.Config{
			URL:          cfg.Webhook.URL,
			Timeout:      cfg.Webhook.Timeout,
			MaxWorkers:   cfg.Webhook.MaxWorkers,
			QueueSize:    cfg.Webhook.QueueSize,
			MaxAttempts:  cfg.Webhook.MaxAttempts,
			RetryBackoff: cfg.Webhook.RetryBackoff,
		}, lg)
		for _, topic := range events.LifecycleTopics() {
			bus.Subscribe(topic, hook.Handler())
		}
	}

	hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost)
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	rbacSvc := rbac.NewService(rbacPostgres.NewRBACRepository(db), lg)
	repos := eventPostgres.NewRepositories(db)

	return &application{
		Config:    cfg,
		Logger:    lg,
		DB:        db,
		SQLX:      sqlxDB,
		Bus:       bus,
		Webhook:   hook,
		Hasher:    hasher,
		Auth:      auth.NewService(authPostgres.NewRepository(db), tokens, hasher, lg),
		Gate:      auth.NewGate(authPostgres.NewPermissionResolver(sqlxDB), lg),
		RBAC:      rbacSvc,
		Users:     user.NewService(userPostgres.NewUserRepository(db), hasher, rbacSvc, lg),
		Events:    event.NewService(repos, cfg.Lifecycle.DefaultFollowUpDays, lg),
		Lifecycle: event.NewLifecycleService(repos, cfg.Lifecycle, bus, lg),
	}, nil
}

// Close drains pending bus handlers and webhook deliveries, then releases
// the connection pool.
func (a *application) Close() {
	a.Bus.Wait()
	if a.Webhook != nil {
		a.Webhook.Flush()
		a.Webhook.Shutdown()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.Error("database close error", "error", err)
		}
	}
}
