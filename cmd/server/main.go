// @title        opsdesk dashboard API
// @version      1.0
// @description  Session-backed auth, role gate and admin approval workflow for the opsdesk dashboard.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api"
	"github.com/opsdesk/dashboard/internal/api/handler"
	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/ports"
	"github.com/opsdesk/dashboard/internal/core/service"
	"github.com/opsdesk/dashboard/internal/infrastructure/db/mongo"
	"github.com/opsdesk/dashboard/internal/infrastructure/db/postgres"
	"github.com/opsdesk/dashboard/internal/infrastructure/db/redis"
	"github.com/opsdesk/dashboard/internal/infrastructure/queue"
	"github.com/opsdesk/dashboard/internal/infrastructure/supabase"
	"github.com/opsdesk/dashboard/internal/pkg/config"
	"github.com/opsdesk/dashboard/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	resolveTimeout  = 10 * time.Second
	authTimeout     = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: "dashboard"})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "dashboard",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Backing stores ---
	db, err := postgres.Connect(ctx, cfg.Postgres.URL, postgres.Options{MaxOpenConns: cfg.Postgres.MaxConns}, logger.Component("postgres"))
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	mongoClient, mongoDB, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	audit := mongo.NewApprovalAuditRepository(mongoDB)
	if err := audit.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("audit indexes not ensured")
	}

	// --- Auth service and row-level-security stores ---
	authClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil, authTimeout)
	verifier := supabase.NewTokenVerifier(cfg.Supabase.JWTSecret)

	exec := postgres.NewExecutor(db, verifier, logger.Component("rls"))
	profiles := postgres.NewProfileRepository(exec)
	tasks := postgres.NewTaskRepository(exec)
	logs := postgres.NewLogRepository(exec)
	sessions := redis.NewSessionRepository(rdb)

	// --- Auth state ---
	dispatcher := queue.NewDispatcher(runtime.NumCPU(), logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	store := service.NewSessionStore(sessions, authClient, dispatcher, logger.Component("session_store"))
	resolver := service.NewProfileResolver(profiles, logger.Component("resolver"))
	machineLog := logger.Component("auth_machine")

	registry, err := service.NewMachineRegistry(cfg.Auth.MachineCacheSize, func(sessionID string) *service.AuthMachine {
		return service.NewAuthMachine(sessionID, store, resolver, machineLog,
			service.WithResolveTimeout(resolveTimeout))
	}, logger.Component("registry"))
	if err != nil {
		return err
	}
	defer registry.Purge()
	store.OnSessionEnd(registry.Remove)

	// --- Services ---
	accounts := service.NewAccountService(authClient, sessions, store, cfg.Session.TTL, logger.Component("accounts"))
	approvals := service.NewApprovalService(profiles, audit, logger.Component("approvals"))
	dashboard := service.NewDashboardService(tasks, logs, logger.Component("dashboard"))

	var badge ports.PendingBadge
	if cfg.Supabase.ServiceKey != "" {
		poller := service.NewPendingPoller(profiles, cfg.Supabase.ServiceKey, cfg.Auth.PendingPollInterval, logger.Component("pending_poller"))
		if err := poller.Start(); err != nil {
			return err
		}
		defer poller.Stop()
		badge = poller
	} else {
		log.Info().Msg("SUPABASE_SERVICE_KEY not set, pending count is read live")
	}

	e := newServer(cfg, components{
		States:    registry,
		Sessions:  store,
		Accounts:  accounts,
		Dashboard: dashboard,
		Approvals: approvals,
		Badge:     badge,
		Checks: []handler.DependencyCheck{
			handler.PostgresCheck(db),
			handler.RedisCheck(rdb),
			handler.MongoCheck(mongoDB),
		},
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

// components are the built services the HTTP layer is wired to.
type components struct {
	States    ports.AuthStates
	Sessions  middleware.TokenSource
	Accounts  ports.AccountService
	Dashboard ports.DashboardService
	Approvals ports.ApprovalService
	Badge     ports.PendingBadge
	Checks    []handler.DependencyCheck
}

func newServer(cfg *config.Config, c components) *echo.Echo {
	return api.NewRouter(api.Deps{
		Logger:    logger.Component("http"),
		Cookie:    middleware.CookieConfig{Secure: cfg.Session.CookieSecure},
		States:    c.States,
		Tokens:    c.Sessions,
		GateWait:  cfg.Auth.GateWaitTimeout,
		Accounts:  c.Accounts,
		Dashboard: c.Dashboard,
		Approvals: c.Approvals,
		Badge:     c.Badge,
		Checks:    c.Checks,
	})
}
