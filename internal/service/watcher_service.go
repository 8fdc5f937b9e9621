package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/metrics"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WatcherService manages price alerts
type WatcherService interface {
	CreateWatcher(ctx context.Context, userID string, req *dto.CreateWatcherRequest) (*domain.Watcher, error)
	ListWatchers(ctx context.Context, userID string) ([]*domain.Watcher, error)

	// Evaluate fires every pending alert whose section price has dropped to
	// or below its target. Alerts for concerts that already started stay pending.
	Evaluate(ctx context.Context, now time.Time) ([]*domain.Watcher, error)
}

type watcherService struct {
	catalog   repository.CatalogRepository
	concerts  repository.ConcertRepository
	watchers  repository.WatcherRepository
	publisher EventPublisher
	engine    *pricing.Engine
	now       func() time.Time
}

// NewWatcherService creates a new watcher service
func NewWatcherService(
	catalog repository.CatalogRepository,
	concerts repository.ConcertRepository,
	watchers repository.WatcherRepository,
	publisher EventPublisher,
	engine *pricing.Engine,
) WatcherService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	if engine == nil {
		engine = pricing.NewEngine(pricing.RoundInterpolated)
	}
	return &watcherService{
		catalog:   catalog,
		concerts:  concerts,
		watchers:  watchers,
		publisher: publisher,
		engine:    engine,
		now:       time.Now,
	}
}

func (s *watcherService) CreateWatcher(ctx context.Context, userID string, req *dto.CreateWatcherRequest) (*domain.Watcher, error) {
	if req.TargetPrice <= 0 || math.IsNaN(req.TargetPrice) {
		return nil, domain.ErrInvalidTargetPrice
	}

	concert, err := s.concerts.GetByID(ctx, req.ConcertID)
	if err != nil {
		return nil, err
	}
	arena, err := s.catalog.GetArena(ctx, concert.ArenaID)
	if err != nil {
		return nil, err
	}
	if _, ok := arena.Section(req.SectionID); !ok {
		return nil, domain.ErrSectionNotFound
	}

	w := &domain.Watcher{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConcertID:   concert.ID,
		SectionID:   req.SectionID,
		TargetPrice: req.TargetPrice,
		CreatedAt:   s.now(),
	}
	if err := s.watchers.Create(ctx, w); err != nil {
		return nil, err
	}
	metrics.RecordWatcherCreated(ctx)
	return w, nil
}

func (s *watcherService) ListWatchers(ctx context.Context, userID string) ([]*domain.Watcher, error) {
	return s.watchers.ListByUser(ctx, userID)
}

type watchTarget struct {
	concert *domain.Concert
	arena   *domain.Arena
}

func (s *watcherService) Evaluate(ctx context.Context, now time.Time) ([]*domain.Watcher, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.watcher.evaluate")
	defer span.End()

	pending, err := s.watchers.ListPending(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list pending watchers: %w", err)
	}
	span.SetAttributes(attribute.Int("pending", len(pending)))

	log := logger.WithContext(ctx)
	targets := make(map[string]*watchTarget)
	triggered := []*domain.Watcher{}

	for _, w := range pending {
		if err := ctx.Err(); err != nil {
			return triggered, err
		}

		target, err := s.target(ctx, targets, w.ConcertID)
		if err != nil {
			log.Warn("skipping watcher", zap.String("watcher_id", w.ID), zap.Error(err))
			continue
		}
		if !now.Before(target.concert.Date) {
			continue
		}
		section, ok := target.arena.Section(w.SectionID)
		if !ok {
			log.Warn("skipping watcher", zap.String("watcher_id", w.ID), zap.Error(domain.ErrSectionNotFound))
			continue
		}

		price := s.engine.ComputePrice(section.BasePrice, *target.concert, now).Total
		if price > w.TargetPrice {
			continue
		}

		fired, err := s.watchers.MarkTriggered(ctx, w.ID, now, price)
		if err != nil {
			telemetry.RecordError(span, err)
			return triggered, err
		}
		if !fired {
			continue
		}

		at := now
		w.TriggeredAt = &at
		w.TriggeredPrice = price
		triggered = append(triggered, w)
		metrics.RecordWatcherTriggered(ctx, w.ConcertID)

		if err := s.publisher.PublishWatcherTriggered(ctx, w); err != nil {
			log.Warn("failed to publish watcher event", zap.String("watcher_id", w.ID), zap.Error(err))
		}
	}

	span.SetAttributes(attribute.Int("triggered", len(triggered)))
	return triggered, nil
}

func (s *watcherService) target(ctx context.Context, cache map[string]*watchTarget, concertID string) (*watchTarget, error) {
	if t, ok := cache[concertID]; ok {
		return t, nil
	}
	concert, err := s.concerts.GetByID(ctx, concertID)
	if err != nil {
		return nil, err
	}
	arena, err := s.catalog.GetArena(ctx, concert.ArenaID)
	if err != nil {
		return nil, err
	}
	t := &watchTarget{concert: concert, arena: arena}
	cache[concertID] = t
	return t, nil
}
