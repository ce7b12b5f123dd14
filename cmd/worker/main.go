package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/app"
	jobmetrics "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/jobs"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/platform/db"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/roster"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := jobmetrics.NewMetrics(nil)

	rosterRepo := roster.NewRepository(pool)
	rosterService := roster.NewService(rosterRepo, noEnqueue{}, nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRosterImport, Handler: jobs.NewRosterImportHandler(rosterService, metrics, logger)},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// noEnqueue satisfies the roster enqueuer port; the worker imports rows
// directly and never re-queues.
type noEnqueue struct{}

func (noEnqueue) EnqueueRosterImport(ctx context.Context, entries []roster.Entry) error {
	return nil
}
