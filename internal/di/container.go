package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/handler"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/internal/service"
	"github.com/prohmpiriya/decaying-tickets/pkg/config"
	"github.com/prohmpiriya/decaying-tickets/pkg/database"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/redis"
	"go.uber.org/zap"
)

// Container holds all dependencies for the ticket service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	CatalogRepo   repository.CatalogRepository
	ConcertRepo   repository.ConcertRepository
	PurchaseRepo  repository.PurchaseRepository
	WatcherRepo   repository.WatcherRepository
	InventoryRepo repository.InventoryRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	Ledger          service.InventoryLedger
	CatalogService  service.CatalogService
	PricingService  service.PricingService
	PurchaseService service.PurchaseService
	WatcherService  service.WatcherService

	// Handlers
	HealthHandler   *handler.HealthHandler
	ConcertHandler  *handler.ConcertHandler
	PricingHandler  *handler.PricingHandler
	PurchaseHandler *handler.PurchaseHandler
	WatcherHandler  *handler.WatcherHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	CatalogRepo    repository.CatalogRepository
	ConcertRepo    repository.ConcertRepository
	PurchaseRepo   repository.PurchaseRepository
	WatcherRepo    repository.WatcherRepository
	InventoryRepo  repository.InventoryRepository
	Narrative      service.NarrativeProvider
	EventPublisher service.EventPublisher

	Engine               *pricing.Engine
	MaxMultiplierCeiling float64
	NarrativeTimeout     time.Duration
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		CatalogRepo:    cfg.CatalogRepo,
		ConcertRepo:    cfg.ConcertRepo,
		PurchaseRepo:   cfg.PurchaseRepo,
		WatcherRepo:    cfg.WatcherRepo,
		InventoryRepo:  cfg.InventoryRepo,
		EventPublisher: cfg.EventPublisher,
	}
	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = pricing.NewEngine(pricing.RoundInterpolated)
	}

	// Initialize services
	syncer := service.NewSectionSyncer(c.CatalogRepo, c.InventoryRepo)
	c.Ledger = service.NewInventoryLedger(c.InventoryRepo, syncer)
	recorder := service.NewPurchaseRecorder(c.PurchaseRepo, cfg.Narrative, cfg.NarrativeTimeout)

	c.CatalogService = service.NewCatalogService(c.CatalogRepo, c.ConcertRepo, &service.CatalogServiceConfig{
		MaxMultiplierCeiling: cfg.MaxMultiplierCeiling,
	})
	c.PricingService = service.NewPricingService(c.CatalogRepo, c.ConcertRepo, c.Ledger, engine, nil)
	c.PurchaseService = service.NewPurchaseService(
		c.CatalogRepo,
		c.ConcertRepo,
		c.PurchaseRepo,
		c.Ledger,
		recorder,
		c.EventPublisher,
		&service.PurchaseServiceConfig{Engine: engine},
	)
	c.WatcherService = service.NewWatcherService(c.CatalogRepo, c.ConcertRepo, c.WatcherRepo, c.EventPublisher, engine)

	// Initialize handlers
	checks := map[string]handler.HealthChecker{"database": nil, "redis": nil}
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(checks)
	c.ConcertHandler = handler.NewConcertHandler(c.CatalogService)
	c.PricingHandler = handler.NewPricingHandler(c.PricingService)
	c.PurchaseHandler = handler.NewPurchaseHandler(c.PurchaseService)
	c.WatcherHandler = handler.NewWatcherHandler(c.WatcherService)

	return c
}

// Build connects the configured backends and assembles the container.
// Close releases whatever Build opened.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()
	cc := &ContainerConfig{
		MaxMultiplierCeiling: cfg.Pricing.MaxMultiplier,
		NarrativeTimeout:     cfg.Narrative.Timeout,
	}

	mode, err := pricing.ParseRoundingMode(cfg.Pricing.RoundingMode)
	if err != nil {
		return nil, err
	}
	cc.Engine = pricing.NewEngine(mode)

	if cfg.UsesPostgres() {
		db, err := database.NewPostgres(ctx, &database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  5 * time.Second,
			MaxRetries:      3,
			RetryInterval:   time.Second,
			EnableTracing:   cfg.OTel.Enabled,
		})
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		cc.DB = db
		cc.CatalogRepo = repository.NewPostgresCatalogRepository(db.Pool())
		cc.ConcertRepo = repository.NewPostgresConcertRepository(db.Pool())
		cc.PurchaseRepo = repository.NewPostgresPurchaseRepository(db.Pool())
		cc.WatcherRepo = repository.NewPostgresWatcherRepository(db.Pool())
		log.Info("Database connected", zap.String("host", cfg.Database.Host))
	} else {
		catalog := repository.NewMemoryCatalogRepository()
		concerts := repository.NewMemoryConcertRepository()
		if err := repository.SeedDemoCatalog(ctx, catalog, concerts, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to seed demo catalog: %w", err)
		}
		cc.CatalogRepo = catalog
		cc.ConcertRepo = concerts
		cc.PurchaseRepo = repository.NewMemoryPurchaseRepository(catalog)
		cc.WatcherRepo = repository.NewMemoryWatcherRepository()
		log.Info("Using in-memory storage with demo catalog")
	}

	narrative := service.NarrativeProvider(service.NewTemplateNarrativeProvider())

	if cfg.UsesRedis() {
		rdb, err := redis.NewClient(ctx, &redis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
		})
		if err != nil {
			cc.closeInfra()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		cc.Redis = rdb

		inventory := repository.NewRedisInventoryRepository(rdb)
		if err := inventory.LoadScripts(ctx); err != nil {
			log.Warn("Failed to pre-load Lua scripts", zap.Error(err))
		}
		cc.InventoryRepo = inventory
		narrative = service.NewCachedNarrativeProvider(narrative, rdb, cfg.Narrative.CacheTTL)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		cc.InventoryRepo = repository.NewMemoryInventoryRepository()
	}
	cc.Narrative = narrative

	if cfg.Kafka.Enabled {
		publisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			log.Warn("Kafka connection failed, using no-op publisher", zap.Error(err))
		} else {
			cc.EventPublisher = publisher
			log.Info("Kafka event publisher connected")
		}
	}

	return NewContainer(cc), nil
}

// Close releases connections opened by Build
func (c *Container) Close() {
	if c.EventPublisher != nil {
		_ = c.EventPublisher.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

func (cc *ContainerConfig) closeInfra() {
	if cc.DB != nil {
		cc.DB.Close()
	}
}
