package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/vetrina-erp/vetrina-erp/internal/app"
	"github.com/vetrina-erp/vetrina-erp/internal/finance"
	"github.com/vetrina-erp/vetrina-erp/internal/platform/cache"
	"github.com/vetrina-erp/vetrina-erp/internal/platform/db"
	"github.com/vetrina-erp/vetrina-erp/jobs"
)

func main() {
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

	financeService := finance.NewService(finance.NewRepository(pool), redisClient, logger)
	financeTasks := jobs.NewFinanceTasks(financeService, logger)

	snapshotTask, err := jobs.NewSnapshotRefreshTask(jobs.SnapshotRefreshPayload{Reason: "nightly"})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewReceivablesDigestTask(jobs.ReceivablesDigestPayload{})
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFinanceSnapshotRefresh, Handler: financeTasks.HandleSnapshotRefresh},
			{Type: jobs.TaskReceivablesDigest, Handler: financeTasks.HandleReceivablesDigest},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
