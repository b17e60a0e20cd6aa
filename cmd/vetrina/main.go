package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/vetrina-erp/vetrina-erp/internal/app"
	"github.com/vetrina-erp/vetrina-erp/internal/auth"
	"github.com/vetrina-erp/vetrina-erp/internal/factors"
	"github.com/vetrina-erp/vetrina-erp/internal/finance"
	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/masterdata"
	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/internal/platform/cache"
	"github.com/vetrina-erp/vetrina-erp/internal/platform/db"
	"github.com/vetrina-erp/vetrina-erp/internal/rbac"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Sessions and the finance snapshot live in Redis, so a dead Redis is fatal.
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

	validate := validator.New()

	tokens := auth.NewTokenStore(redisClient, cfg.SessionTTL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService, validate)

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	ledgerService := ledger.NewService(ledger.NewRepository(dbpool))

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, ledgerService, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, ledgerService, validate, rbacMiddleware)

	financeService := finance.NewService(finance.NewRepository(dbpool), redisClient, logger)
	financeHandler := finance.NewHandler(logger, financeService, rbacMiddleware)

	factorsService := factors.NewService(factors.NewRepository(dbpool))
	factorsHandler := factors.NewHandler(logger, factorsService, validate, rbacMiddleware)

	masterdataService := masterdata.NewService(masterdata.NewRepository(dbpool))
	masterdataHandler := masterdata.NewHandler(logger, masterdataService, validate, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokens,
		AuthHandler:       authHandler,
		OrdersHandler:     ordersHandler,
		FinanceHandler:    financeHandler,
		FactorsHandler:    factorsHandler,
		MasterDataHandler: masterdataHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
