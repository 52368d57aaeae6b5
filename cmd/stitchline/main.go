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

	"github.com/hibiken/asynq"

	"github.com/stitchline/stitchline-erp/internal/app"
	"github.com/stitchline/stitchline-erp/internal/auth"
	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/observability"
	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/platform/cache"
	"github.com/stitchline/stitchline-erp/internal/platform/db"
	"github.com/stitchline/stitchline-erp/internal/production"
	"github.com/stitchline/stitchline-erp/internal/realtime"
	"github.com/stitchline/stitchline-erp/internal/shared"
	"github.com/stitchline/stitchline-erp/jobs"
	"github.com/stitchline/stitchline-erp/report"
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

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema applied")
	}

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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(dbpool), shared.NewTokenRegistry(redisClient, "stitchline:token"), issuer)
	authHandler := auth.NewHandler(logger, authService)

	hub := realtime.NewHub()
	go hub.Run(ctx)
	metrics.Gauge("stitchline_mapping_feed_subscribers", "Open governance mapping feed connections.", func() float64 {
		return float64(hub.Subscribers())
	})

	hrService := hr.NewService(hr.NewRepository(dbpool), auditLogger, hub)
	hrHandler := hr.NewHandler(logger, hrService, realtime.Handler(hub, authService, logger))

	mastersCache := cache.NewJSONCache(redisClient, "stitchline:masters", cfg.MastersCacheTTL)
	mastersService := masters.NewService(masters.NewRepository(dbpool), mastersCache, jobClient, logger)
	mastersHandler := masters.NewHandler(logger, mastersService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	ordersService := orders.NewService(orders.NewRepository(dbpool), mastersService, idempotencyStore, reportClient, auditLogger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		AuthHandler:       authHandler,
		HRHandler:         hrHandler,
		MastersHandler:    mastersHandler,
		OrdersHandler:     orders.NewHandler(logger, ordersService),
		ProductionHandler: production.NewHandler(logger, ordersService),
		ReportHandler:     report.NewHandler(reportClient, logger),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
