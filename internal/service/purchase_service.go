package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/metrics"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/retry"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// PurchaseService defines the interface for buying tickets
type PurchaseService interface {
	// Purchase buys one seat at the current price
	Purchase(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error)

	// ListUserPurchases returns the buyer's own tickets, newest first
	ListUserPurchases(ctx context.Context, userID string, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error)

	// ListAllPurchases returns every ticket; admin only
	ListAllPurchases(ctx context.Context, actor domain.Actor, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error)
}

// PurchaseServiceConfig contains optional collaborators for the purchase service
type PurchaseServiceConfig struct {
	Engine *pricing.Engine
	Clock  func() time.Time
	// ReleaseRetry controls retries of the compensating seat release
	ReleaseRetry *retry.Config
}

type purchaseService struct {
	catalog   repository.CatalogRepository
	concerts  repository.ConcertRepository
	purchases repository.PurchaseRepository
	ledger    InventoryLedger
	recorder  PurchaseRecorder
	publisher EventPublisher
	engine    *pricing.Engine
	retrier   *retry.Retrier
	now       func() time.Time
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	catalog repository.CatalogRepository,
	concerts repository.ConcertRepository,
	purchases repository.PurchaseRepository,
	ledger InventoryLedger,
	recorder PurchaseRecorder,
	publisher EventPublisher,
	cfg *PurchaseServiceConfig,
) PurchaseService {
	engine := pricing.NewEngine(pricing.RoundInterpolated)
	now := time.Now
	var retryCfg *retry.Config
	if cfg != nil {
		if cfg.Engine != nil {
			engine = cfg.Engine
		}
		if cfg.Clock != nil {
			now = cfg.Clock
		}
		retryCfg = cfg.ReleaseRetry
	}
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &purchaseService{
		catalog:   catalog,
		concerts:  concerts,
		purchases: purchases,
		ledger:    ledger,
		recorder:  recorder,
		publisher: publisher,
		engine:    engine,
		retrier:   retry.New(retryCfg),
		now:       now,
	}
}

func (s *purchaseService) Purchase(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.purchase.purchase")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !buyer.Role.CanBuy() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	span.SetAttributes(
		attribute.String("user_id", buyer.UserID),
		attribute.String("concert_id", req.ConcertID),
		attribute.String("section_id", req.SectionID),
	)

	concert, err := s.concerts.GetByID(ctx, req.ConcertID)
	if err != nil {
		return nil, err
	}
	arena, err := s.catalog.GetArena(ctx, concert.ArenaID)
	if err != nil {
		return nil, err
	}
	section, ok := arena.Section(req.SectionID)
	if !ok {
		span.SetStatus(codes.Error, "section not in arena")
		return nil, domain.ErrSectionNotFound
	}
	artist, err := s.catalog.GetArtist(ctx, concert.ArtistID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := concert.SaleOpen(now); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Reserve(ctx, section.ID, 1); err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			metrics.RecordSoldOut(ctx, concert.ID, section.ID)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The seat is ours; finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	snap := s.engine.ComputePrice(section.BasePrice, *concert, now)

	purchase, err := s.recorder.Record(ctx, PurchaseInput{
		Buyer:    buyer,
		Concert:  concert,
		Artist:   artist,
		Arena:    arena,
		Section:  section,
		Snapshot: snap,
		At:       now,
	})
	if err != nil {
		s.compensate(ctx, section.ID)
		metrics.RecordPurchaseFailure(ctx, concert.ID, "persist")
		telemetry.RecordError(span, err)
		if errors.Is(err, domain.ErrSoldOut) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := s.publisher.PublishPurchaseRecorded(ctx, purchase); err != nil {
		logger.WithContext(ctx).Warn("failed to publish purchase event",
			zap.String("purchase_id", purchase.ID),
			zap.Error(err),
		)
	}
	metrics.RecordPurchase(ctx, concert.ID, section.ID, purchase.DonationAmount)

	span.SetAttributes(attribute.String("purchase_id", purchase.ID))
	span.SetStatus(codes.Ok, "")
	return purchase, nil
}

// compensate returns the reserved seat after a failed persist. Transient
// ledger errors are retried; inventory rule violations are not.
func (s *purchaseService) compensate(ctx context.Context, sectionID string) {
	result := s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.ledger.Release(ctx, sectionID, 1)
		if errors.Is(err, domain.ErrSeatCeilingExceeded) || errors.Is(err, domain.ErrSectionNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if result.Err != nil {
		logger.WithContext(ctx).Error("failed to release seat after purchase failure",
			zap.String("section_id", sectionID),
			zap.Int("attempts", result.Attempts),
			zap.NamedError("last_error", result.LastError),
			zap.Error(result.Err),
		)
	}
}

func (s *purchaseService) ListUserPurchases(ctx context.Context, userID string, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
	if q == nil {
		q = &dto.ListPurchasesQuery{}
	}
	q.Normalize()
	return s.purchases.ListByUser(ctx, userID, q.PageSize, q.Offset())
}

func (s *purchaseService) ListAllPurchases(ctx context.Context, actor domain.Actor, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
	if !actor.Role.CanViewAllPurchases() {
		return nil, 0, domain.ErrForbidden
	}
	if q == nil {
		q = &dto.ListPurchasesQuery{}
	}
	q.Normalize()
	return s.purchases.ListAll(ctx, q.PageSize, q.Offset())
}
