package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"despesas/internal/cli"
	apphttp "despesas/internal/http"
	"despesas/internal/log"
	"despesas/internal/report"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, log.ComponentApp), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	store, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize record store", err)
	}
	defer store.Close()

	svc := report.NewService(store.Backend, report.NewEngine(cfg.MaxCategories), logger)
	srv := apphttp.NewServer(svc, apphttp.Options{
		Addr:            ":" + cfg.Port,
		RequestTimeout:  cfg.RequestTimeout,
		SessionTTL:      cfg.SnapshotTTL,
		SessionCapacity: cfg.SnapshotCapacity,
		RateLimit:       cfg.RateLimit,
		Readiness:       store,
		Logger:          logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting despesas server", "port", cfg.Port, "backend", store.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
