package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"revenue-dashboard/internal/config"
	"revenue-dashboard/internal/db"
	"revenue-dashboard/internal/handlers"
	"revenue-dashboard/internal/middleware"
	"revenue-dashboard/internal/observability"
	"revenue-dashboard/internal/server"
	"revenue-dashboard/internal/services"
	"revenue-dashboard/internal/session"
)

const csvLoadTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg.LogValue(),
	)

	// Branch master is optional at startup: without it the dashboard
	// degrades to a warning instead of refusing to boot.
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	branches, err := services.LoadBranches(ctx, cfg.Branches.CSVFile)
	cancel()
	if err != nil {
		logger.Warn("branch master unavailable, dashboard degrades to a warning state",
			"csv_file", cfg.Branches.CSVFile,
			"error", err,
		)
		branches = nil
	}

	manager := db.NewManager(cfg, logger)
	defer manager.Close()
	executor := db.NewExecutor(manager, logger)

	guard := session.NewGuard(cfg.Auth.Password, cfg.Auth.IdleTimeout, logger)

	apiHandlers := handlers.NewAPIHandlers(branches, executor, manager, guard, logger)
	sseHandlers := handlers.NewSSEHandlers(apiHandlers, logger)
	pageHandlers := handlers.NewPageHandlers(branches, guard, logger)

	srv := server.NewServer(pageHandlers, apiHandlers, sseHandlers, guard, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	// Tunnel and database session must be released on every exit path.
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing tunnel and database session")
		manager.Close()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		manager.Close()
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
