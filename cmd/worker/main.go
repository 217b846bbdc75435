package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/milkline/milkline/internal/app"
	"github.com/milkline/milkline/internal/dispatch"
	"github.com/milkline/milkline/internal/platform/db"
	"github.com/milkline/milkline/internal/procurement"
	"github.com/milkline/milkline/internal/recycle"
	"github.com/milkline/milkline/internal/shared"
	"github.com/milkline/milkline/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns, MaxIdleTime: cfg.PGMaxIdleTime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	guard := shared.NewIdempotencyStore(pool)
	audit := shared.NewAuditLogger(pool)

	purchaseRepo := procurement.NewRepository(pool)
	saleRepo := dispatch.NewRepository(pool)

	// The worker only purges, so the services run without a master-data
	// snapshot; nothing on the purge path resolves references.
	purchaseService := procurement.NewService(logger, purchaseRepo, nil, guard, audit)
	saleService := dispatch.NewService(logger, saleRepo, nil, guard, audit)

	recycleService := recycle.NewService(logger, cfg.RecycleRetention,
		purchaseRepo, saleRepo, purchaseService, saleService)

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{OlderThanHours: 24 * 30})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRecyclePurge, Handler: jobs.HandleRecyclePurge(recycleService)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.HandleIdempotencyCleanup(guard)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: jobs.NewRecyclePurgeTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
