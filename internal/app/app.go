package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smhassan90/salaahManager/internal/api"
	"github.com/smhassan90/salaahManager/internal/config"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	"github.com/smhassan90/salaahManager/internal/session"
	"github.com/smhassan90/salaahManager/internal/session/memory"
	sessionredis "github.com/smhassan90/salaahManager/internal/session/redis"
	sessionsqlite "github.com/smhassan90/salaahManager/internal/session/sqlite"
	"github.com/smhassan90/salaahManager/pkg/database"
	"github.com/smhassan90/salaahManager/pkg/health"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
	"github.com/smhassan90/salaahManager/pkg/tracing"
)

// App wires together all dependencies of the client core.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *session.Store
	client         *httpclient.Client
	services       *api.Services
	orchestrator   *orchestrator.Orchestrator
	tracerShutdown func(context.Context) error
	health         *health.Registry
	dbCollector    prometheus.Collector
}

// NewApp creates a new application instance, initializing all dependencies.
// The orchestrator is returned unbootstrapped.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(initCtx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	backend, err := newBackend(initCtx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	logger.Info("session store ready", slog.String("backend", cfg.SessionBackend))

	var dbCollector prometheus.Collector
	if b, ok := backend.(*sessionsqlite.Backend); ok {
		database.SetSlowQueryLogging(cfg.SQLite.SlowQueryThreshold, logger)
		dbCollector = database.NewDBStatsCollector(b.DB(), "session")
		if err := prometheus.Register(dbCollector); err != nil {
			logger.Warn("failed to register sqlite metrics", slog.String("error", err.Error()))
			dbCollector = nil
		}
	}

	// Build the dependency graph.
	store := session.NewStore(backend)
	client := httpclient.New(cfg.HTTPClient(), store, logger)
	services := api.New(client)
	orch := orchestrator.New(orchestrator.DepsFromServices(services, store, logger))
	client.SetSessionExpiredHook(orch.HandleSessionExpired)

	checks := health.NewRegistry(5 * time.Second)
	checks.Register("api", func(ctx context.Context) error {
		status, err := services.Health.Check(ctx)
		if err != nil {
			return err
		}
		if !status.Success {
			return fmt.Errorf("backend reports unhealthy: %s", status.Message)
		}
		return nil
	})
	checks.Register("session_store", func(ctx context.Context) error {
		_, err := store.Language(ctx)
		return err
	})

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		client:         client,
		services:       services,
		orchestrator:   orch,
		tracerShutdown: tracerShutdown,
		health:         checks,
		dbCollector:    dbCollector,
	}, nil
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Backend, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))
		return sessionredis.New(client, cfg.RedisNamespace), nil

	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		backend, err := sessionsqlite.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare sqlite session store: %w", err)
		}
		logger.Info("opened SQLite session store", slog.String("path", cfg.SQLite.Path))
		return backend, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}

// Orchestrator returns the application state owner.
func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orchestrator }

// Services returns the typed API services.
func (a *App) Services() *api.Services { return a.services }

// Store returns the persistent session store.
func (a *App) Store() *session.Store { return a.store }

// Client returns the HTTP transport.
func (a *App) Client() *httpclient.Client { return a.client }

// Health runs the dependency checks: the backend API and the session store.
func (a *App) Health(ctx context.Context) health.Report { return a.health.Run(ctx) }

// Close stops all components in order:
// 1. Orchestrator (drop in-flight results)
// 2. Tracer (flush pending spans)
// 3. Session store
func (a *App) Close() error {
	var errs []error

	if err := a.orchestrator.Close(); err != nil {
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.dbCollector != nil {
		prometheus.Unregister(a.dbCollector)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("session store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
