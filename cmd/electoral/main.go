package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/app"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
	audithttp "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit/http"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/auth"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/election"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/identity"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/observability"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/cache"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/db"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/positions"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/rbac"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/roster"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/shared"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/users"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/voting"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "electoral_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	identityProvider := identity.NewSessionProvider()

	recorder := audit.NewRecorder(audit.NewPGStore(dbpool), identityProvider, logger)
	defer recorder.Flush()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, identityProvider.Broadcaster, recorder)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	positionsRepo := positions.NewRepository(dbpool)
	positionsService := positions.NewService(positionsRepo, recorder)
	positionsHandler := positions.NewHandler(logger, positionsService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	electionRepo := election.NewRepository(dbpool)
	electionService := election.NewService(electionRepo, positionsService, recorder, jobClient)
	electionHandler := election.NewHandler(logger, electionService)

	metrics := observability.NewMetrics()

	votingRepo := voting.NewRepository(dbpool)
	votingService := voting.NewService(votingRepo, recorder)
	votingHandler := voting.NewHandler(logger, votingService, metrics)

	rosterRepo := roster.NewRepository(dbpool)
	rosterService := roster.NewService(rosterRepo, jobClient, recorder)
	rosterHandler := roster.NewHandler(logger, rosterService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rbacService)
	usersHandler := users.NewHandler(logger, usersService)

	auditService := audit.NewService(audit.NewPGRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, audit.CSVExporter{})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		ElectionHandler:  electionHandler,
		PositionsHandler: positionsHandler,
		VotingHandler:    votingHandler,
		RosterHandler:    rosterHandler,
		UsersHandler:     usersHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
		RBACMiddleware:   rbacMiddleware,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
