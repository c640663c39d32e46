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

	"github.com/ovaprima-erp/ovaprima-erp/internal/app"
	"github.com/ovaprima-erp/ovaprima-erp/internal/auth"
	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/directory"
	"github.com/ovaprima-erp/ovaprima-erp/internal/observability"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/cache"
	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/db"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
	"github.com/ovaprima-erp/ovaprima-erp/internal/sysreset"
	"github.com/ovaprima-erp/ovaprima-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
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

	sessionManager := shared.NewSessionManager(redisClient, "ovaprima_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	directoryRepo := directory.NewRepository(pool)
	snapshots := directory.NewSnapshots(authService, directoryRepo)
	directoryService := directory.NewService(directoryRepo, snapshots)

	authzMW := authz.Middleware{Resolver: snapshots, Logger: logger, Recorder: metrics}

	auditLogger := shared.NewAuditLogger(pool)
	resetService := sysreset.NewService(pool, auditLogger)
	resetRegistry := sysreset.NewRegistry(resetService)

	authHandler := auth.NewHandler(logger, authService, sessionManager, snapshots, authzMW)
	directoryHandler := directory.NewHandler(logger, directoryService, authzMW)
	menuHandler := authz.NewMenuHandler(logger, authzMW)
	resetHandler := sysreset.NewHandler(logger, resetService, resetRegistry, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
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
	jobHandler := jobs.NewHandler(inspector, jobClient, authzMW, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		DirectoryHandler: directoryHandler,
		MenuHandler:      menuHandler,
		ResetHandler:     resetHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
}
