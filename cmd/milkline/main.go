package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milkline/milkline/internal/app"
	"github.com/milkline/milkline/internal/appstate"
	"github.com/milkline/milkline/internal/dispatch"
	"github.com/milkline/milkline/internal/masterdata"
	"github.com/milkline/milkline/internal/platform/cache"
	"github.com/milkline/milkline/internal/platform/db"
	"github.com/milkline/milkline/internal/procurement"
	"github.com/milkline/milkline/internal/recycle"
	"github.com/milkline/milkline/internal/shared"
	"github.com/milkline/milkline/jobs"

	"github.com/hibiken/asynq"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns, MaxIdleTime: cfg.PGMaxIdleTime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	masterServices := masterdata.NewServices(pool)
	masterHandler := masterdata.NewHandler(logger, masterServices)

	state := appstate.NewStore(logger, redisClient,
		masterServices.Vendors, masterServices.Customers, masterServices.MilkTypes,
		cfg.MasterCacheTTL)
	if err := state.Load(ctx); err != nil {
		logger.Error("load master snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	guard := shared.NewIdempotencyStore(pool)
	audit := shared.NewAuditLogger(pool)

	purchaseRepo := procurement.NewRepository(pool)
	purchaseService := procurement.NewService(logger, purchaseRepo, state, guard, audit)
	purchaseHandler := procurement.NewHandler(logger, purchaseService)

	saleRepo := dispatch.NewRepository(pool)
	saleService := dispatch.NewService(logger, saleRepo, state, guard, audit)
	saleHandler := dispatch.NewHandler(logger, saleService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	jobsHandler := jobs.NewHandler(inspector, logger)

	recycleService := recycle.NewService(logger, cfg.RecycleRetention,
		purchaseRepo, saleRepo, purchaseService, saleService)
	recycleHandler := recycle.NewHandler(logger, recycleService, jobsClient)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		MasterDataHandler:  masterHandler,
		ProcurementHandler: purchaseHandler,
		DispatchHandler:    saleHandler,
		RecycleHandler:     recycleHandler,
		JobsHandler:        jobsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("milkline listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	if err := state.Teardown(shutdownCtx); err != nil {
		logger.Warn("snapshot teardown", slog.Any("error", err))
	}
	logger.Info("milkline stopped")
}
