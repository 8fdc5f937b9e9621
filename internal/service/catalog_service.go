package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// CatalogService manages artists, arenas and concerts
type CatalogService interface {
	// CreateConcert schedules a concert; artists may only schedule their own
	CreateConcert(ctx context.Context, actor domain.Actor, req *dto.CreateConcertRequest) (*domain.Concert, error)
	GetConcert(ctx context.Context, id string) (*dto.ConcertSummary, error)
	ListConcerts(ctx context.Context, q *dto.ListConcertsQuery) ([]*dto.ConcertSummary, error)
	SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error)
	GetArtist(ctx context.Context, id string) (*domain.Artist, error)
	GetArena(ctx context.Context, id string) (*domain.Arena, error)
}

// CatalogServiceConfig contains configuration for the catalog service
type CatalogServiceConfig struct {
	MaxMultiplierCeiling float64
	Clock                func() time.Time
}

type catalogService struct {
	catalog  repository.CatalogRepository
	concerts repository.ConcertRepository
	ceiling  float64
	now      func() time.Time
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog repository.CatalogRepository, concerts repository.ConcertRepository, cfg *CatalogServiceConfig) CatalogService {
	ceiling := pricing.DefaultMaxMultiplierCeiling
	now := time.Now
	if cfg != nil {
		if cfg.MaxMultiplierCeiling > 0 {
			ceiling = cfg.MaxMultiplierCeiling
		}
		if cfg.Clock != nil {
			now = cfg.Clock
		}
	}
	return &catalogService{
		catalog:  catalog,
		concerts: concerts,
		ceiling:  ceiling,
		now:      now,
	}
}

func (s *catalogService) CreateConcert(ctx context.Context, actor domain.Actor, req *dto.CreateConcertRequest) (*domain.Concert, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create_concert")
	defer span.End()

	if !actor.Role.CanManageConcerts() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}
	if actor.Role == domain.RoleArtist && actor.ArtistID != req.ArtistID {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}
	if req.MaxMultiplier == nil {
		return nil, domain.ErrInvalidMultiplier
	}

	span.SetAttributes(
		attribute.String("artist_id", req.ArtistID),
		attribute.String("arena_id", req.ArenaID),
	)

	artist, err := s.catalog.GetArtist(ctx, req.ArtistID)
	if err != nil {
		return nil, err
	}
	arena, err := s.catalog.GetArena(ctx, req.ArenaID)
	if err != nil {
		return nil, err
	}

	concert := &domain.Concert{
		ID:            uuid.New().String(),
		ArtistID:      artist.ID,
		ArenaID:       arena.ID,
		Date:          req.Date,
		LaunchDate:    req.LaunchDate,
		FloorDate:     req.FloorDate,
		MaxMultiplier: *req.MaxMultiplier,
		CharityIDs:    req.CharityIDs,
		CreatedAt:     s.now(),
	}
	if err := pricing.ValidateConcert(*concert, s.ceiling); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, section := range arena.Sections {
		if err := pricing.ValidateBasePrice(section.BasePrice); err != nil {
			return nil, fmt.Errorf("section %s: %w", section.ID, err)
		}
	}
	for _, id := range concert.CharityIDs {
		if !artist.HasCause(id) {
			span.SetStatus(codes.Error, "unknown charity")
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCharity, id)
		}
	}

	if err := s.concerts.Create(ctx, concert); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithContext(ctx).Info("concert scheduled",
		zap.String("concert_id", concert.ID),
		zap.String("artist_id", concert.ArtistID),
		zap.String("created_by", actor.UserID),
	)
	span.SetStatus(codes.Ok, "")
	return concert, nil
}

func (s *catalogService) GetConcert(ctx context.Context, id string) (*dto.ConcertSummary, error) {
	concert, err := s.concerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summarize(ctx, []*domain.Concert{concert})
	if err != nil {
		return nil, err
	}
	return summaries[0], nil
}

func (s *catalogService) ListConcerts(ctx context.Context, q *dto.ListConcertsQuery) ([]*dto.ConcertSummary, error) {
	artistID := ""
	if q != nil {
		artistID = q.ArtistID
	}
	concerts, err := s.concerts.List(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, concerts)
}

// summarize attaches artist and arena names, loading each once
func (s *catalogService) summarize(ctx context.Context, concerts []*domain.Concert) ([]*dto.ConcertSummary, error) {
	artists := make(map[string]*domain.Artist)
	arenas := make(map[string]*domain.Arena)

	out := make([]*dto.ConcertSummary, 0, len(concerts))
	for _, c := range concerts {
		artist, ok := artists[c.ArtistID]
		if !ok {
			a, err := s.catalog.GetArtist(ctx, c.ArtistID)
			if err != nil {
				return nil, err
			}
			artists[c.ArtistID], artist = a, a
		}
		arena, ok := arenas[c.ArenaID]
		if !ok {
			a, err := s.catalog.GetArena(ctx, c.ArenaID)
			if err != nil {
				return nil, err
			}
			arenas[c.ArenaID], arena = a, a
		}
		out = append(out, &dto.ConcertSummary{
			Concert:    c,
			ArtistName: artist.Name,
			ArenaName:  arena.Name,
			City:       arena.City,
		})
	}
	return out, nil
}

func (s *catalogService) SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error) {
	return s.catalog.SearchArtists(ctx, query)
}

func (s *catalogService) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	return s.catalog.GetArtist(ctx, id)
}

func (s *catalogService) GetArena(ctx context.Context, id string) (*domain.Arena, error) {
	return s.catalog.GetArena(ctx, id)
}
