package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prohmpiriya/decaying-tickets/internal/di"
	"github.com/prohmpiriya/decaying-tickets/internal/metrics"
	"github.com/prohmpiriya/decaying-tickets/internal/worker"
	"github.com/prohmpiriya/decaying-tickets/pkg/config"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "price-watch-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting price watch worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    "price-watch-worker",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
		MetricInterval: cfg.OTel.MetricInterval,
	}); err != nil {
		appLog.Warn("Telemetry disabled", zap.Error(err))
	}
	defer telemetry.Shutdown(context.Background())

	if err := metrics.Init(); err != nil {
		appLog.Warn("Failed to register metrics", zap.Error(err))
	}

	container, err := di.Build(ctx, cfg)
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}
	defer container.Close()

	w := worker.NewPriceWatchWorker(&worker.PriceWatchWorkerConfig{
		Schedule: cfg.Watcher.Schedule,
	}, container.WatcherService, appLog)

	if err := w.Start(ctx); err != nil {
		appLog.Error("Price watch worker failed", zap.Error(err))
		return
	}
	appLog.Info("Price watch worker exited gracefully")
}
