package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/di"
	"github.com/prohmpiriya/decaying-tickets/internal/metrics"
	"github.com/prohmpiriya/decaying-tickets/pkg/config"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/middleware"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting ticket service...", zap.String("version", cfg.App.Version))

	ctx := context.Background()

	// Initialize telemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
		MetricInterval: cfg.OTel.MetricInterval,
	}); err != nil {
		appLog.Warn("Telemetry disabled", zap.Error(err))
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn("Failed to register metrics", zap.Error(err))
	}

	// Build dependency injection container
	container, err := di.Build(ctx, cfg)
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}
	defer container.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName, "/health", "/ready"))
	router.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	auth := middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	})

	idempotencyConfig := middleware.DefaultIdempotencyConfig(nil)
	if container.Redis != nil {
		idempotencyConfig = middleware.DefaultIdempotencyConfig(container.Redis)
	}

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Public catalog and pricing
		v1.GET("/artists", container.ConcertHandler.SearchArtists)
		v1.GET("/artists/:id", container.ConcertHandler.GetArtist)
		v1.GET("/arenas/:id", container.ConcertHandler.GetArena)
		v1.GET("/concerts", container.ConcertHandler.ListConcerts)
		v1.GET("/concerts/:id", container.ConcertHandler.GetConcert)
		v1.GET("/concerts/:id/pricing", container.PricingHandler.GetPricing)
		v1.GET("/concerts/:id/pricing/curve", container.PricingHandler.GetCurve)

		v1.POST("/concerts", auth, middleware.RequireRole("artist", "admin"), container.ConcertHandler.CreateConcert)

		purchases := v1.Group("/purchases", auth)
		{
			purchases.POST("", middleware.IdempotencyMiddleware(idempotencyConfig), container.PurchaseHandler.Purchase)
			purchases.GET("", container.PurchaseHandler.ListUserPurchases)
		}

		watchers := v1.Group("/watchers", auth)
		{
			watchers.POST("", container.WatcherHandler.Create)
			watchers.GET("", container.WatcherHandler.List)
		}

		admin := v1.Group("/admin", auth, middleware.RequireRole("admin"))
		{
			admin.GET("/purchases", container.PurchaseHandler.ListAllPurchases)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		appLog.Info("Ticket service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.IdempotencyKeyHeader)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
