package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ArxivDigest/internal/app"
	"ArxivDigest/internal/config"
	"ArxivDigest/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	summary := application.Run(ctx)
	if err := summary.Print(os.Stdout); err != nil {
		logger.Warn("print summary", "error", err)
	}
	if err := application.Close(); err != nil {
		logger.Warn("close application", "error", err)
	}

	if !summary.OK() {
		logger.Error("batch finished with failures", "failed", summary.Failed(), "batch_id", summary.BatchID)
		stop()
		os.Exit(1)
	}
}
