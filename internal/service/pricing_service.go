package service

import (
	"context"
	"time"

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

// PricingService quotes concert prices
type PricingService interface {
	// GetConcertPricing quotes every section at the given instant, or now when at is zero
	GetConcertPricing(ctx context.Context, concertID string, at time.Time) (*dto.ConcertPricingResponse, error)

	// GetPriceCurve samples the decay curve of one section
	GetPriceCurve(ctx context.Context, concertID string, q *dto.PriceCurveQuery) (*dto.PriceCurveResponse, error)
}

type pricingService struct {
	catalog  repository.CatalogRepository
	concerts repository.ConcertRepository
	ledger   InventoryLedger
	engine   *pricing.Engine
	now      func() time.Time
}

// NewPricingService creates a new pricing service
func NewPricingService(
	catalog repository.CatalogRepository,
	concerts repository.ConcertRepository,
	ledger InventoryLedger,
	engine *pricing.Engine,
	clock func() time.Time,
) PricingService {
	if engine == nil {
		engine = pricing.NewEngine(pricing.RoundInterpolated)
	}
	if clock == nil {
		clock = time.Now
	}
	return &pricingService{
		catalog:  catalog,
		concerts: concerts,
		ledger:   ledger,
		engine:   engine,
		now:      clock,
	}
}

func (s *pricingService) GetConcertPricing(ctx context.Context, concertID string, at time.Time) (*dto.ConcertPricingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.get_concert_pricing")
	defer span.End()
	span.SetAttributes(attribute.String("concert_id", concertID))

	concert, artist, arena, err := s.loadConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = s.now()
	}

	sections := make([]dto.SectionPrice, 0, len(arena.Sections))
	for i := range arena.Sections {
		section := &arena.Sections[i]
		snap := s.engine.ComputePrice(section.BasePrice, *concert, at)
		sections = append(sections, dto.NewSectionPrice(section, snap, s.available(ctx, section)))
	}

	metrics.RecordPriceQuote(ctx, concertID)
	return &dto.ConcertPricingResponse{
		Concert:           concert,
		Artist:            artist,
		Arena:             arena,
		QuotedAt:          at,
		CurrentMultiplier: s.engine.CurrentMultiplier(*concert, at),
		Sections:          sections,
	}, nil
}

// available prefers the live ledger and falls back to the catalog count
func (s *pricingService) available(ctx context.Context, section *domain.ArenaSection) int64 {
	if s.ledger == nil {
		return int64(section.AvailableSeats)
	}
	n, err := s.ledger.Availability(ctx, section.ID)
	if err != nil {
		logger.WithContext(ctx).Warn("live availability unavailable, using catalog count",
			zap.String("section_id", section.ID),
			zap.Error(err),
		)
		return int64(section.AvailableSeats)
	}
	return n
}

func (s *pricingService) GetPriceCurve(ctx context.Context, concertID string, q *dto.PriceCurveQuery) (*dto.PriceCurveResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.get_price_curve")
	defer span.End()
	span.SetAttributes(attribute.String("concert_id", concertID))

	if q == nil {
		q = &dto.PriceCurveQuery{}
	}

	concert, err := s.concerts.GetByID(ctx, concertID)
	if err != nil {
		return nil, err
	}
	arena, err := s.catalog.GetArena(ctx, concert.ArenaID)
	if err != nil {
		return nil, err
	}

	var section *domain.ArenaSection
	if q.SectionID == "" {
		if len(arena.Sections) == 0 {
			return nil, domain.ErrSectionNotFound
		}
		section = &arena.Sections[0]
	} else {
		var ok bool
		if section, ok = arena.Section(q.SectionID); !ok {
			return nil, domain.ErrSectionNotFound
		}
	}

	return &dto.PriceCurveResponse{
		ConcertID: concert.ID,
		SectionID: section.ID,
		Points:    s.engine.Curve(section.BasePrice, *concert, q.Steps),
	}, nil
}

func (s *pricingService) loadConcert(ctx context.Context, concertID string) (*domain.Concert, *domain.Artist, *domain.Arena, error) {
	concert, err := s.concerts.GetByID(ctx, concertID)
	if err != nil {
		return nil, nil, nil, err
	}
	artist, err := s.catalog.GetArtist(ctx, concert.ArtistID)
	if err != nil {
		return nil, nil, nil, err
	}
	arena, err := s.catalog.GetArena(ctx, concert.ArenaID)
	if err != nil {
		return nil, nil, nil, err
	}
	return concert, artist, arena, nil
}
