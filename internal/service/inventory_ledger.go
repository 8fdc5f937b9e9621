package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SeatsReserved confirms a successful claim
type SeatsReserved struct {
	SectionID      string
	Quantity       int
	AvailableSeats int64
}

// InventoryLedger tracks available seats per section. Reserve never lets a
// counter go below zero, whatever the number of concurrent callers.
type InventoryLedger interface {
	Reserve(ctx context.Context, sectionID string, quantity int) (*SeatsReserved, error)
	// Release returns seats from a reservation whose purchase was not persisted
	Release(ctx context.Context, sectionID string, quantity int) error
	Availability(ctx context.Context, sectionID string) (int64, error)
}

type inventoryLedger struct {
	repo   repository.InventoryRepository
	syncer SectionSyncer
}

// NewInventoryLedger creates a ledger over repo. A nil syncer disables
// lazy seeding of unknown sections.
func NewInventoryLedger(repo repository.InventoryRepository, syncer SectionSyncer) InventoryLedger {
	return &inventoryLedger{repo: repo, syncer: syncer}
}

func (l *inventoryLedger) Reserve(ctx context.Context, sectionID string, quantity int) (*SeatsReserved, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("section_id", sectionID),
		attribute.Int("quantity", quantity),
	)

	if quantity <= 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}

	result, err := l.repo.ReserveSeats(ctx, sectionID, quantity)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !result.Success && result.ErrorCode == repository.ErrCodeSectionNotFound && l.syncer != nil {
		if err := l.syncer.SyncSection(ctx, sectionID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result, err = l.repo.ReserveSeats(ctx, sectionID, quantity)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if !result.Success {
		err := inventoryError(result.ErrorCode, result.ErrorMessage)
		span.SetStatus(codes.Error, result.ErrorCode)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("available_seats", result.AvailableSeats))
	span.SetStatus(codes.Ok, "")
	return &SeatsReserved{
		SectionID:      sectionID,
		Quantity:       quantity,
		AvailableSeats: result.AvailableSeats,
	}, nil
}

func (l *inventoryLedger) Release(ctx context.Context, sectionID string, quantity int) error {
	ctx, span := telemetry.StartSpan(ctx, "service.inventory.release")
	defer span.End()
	span.SetAttributes(
		attribute.String("section_id", sectionID),
		attribute.Int("quantity", quantity),
	)

	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	result, err := l.repo.ReleaseSeats(ctx, sectionID, quantity)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorCode)
		return inventoryError(result.ErrorCode, result.ErrorMessage)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (l *inventoryLedger) Availability(ctx context.Context, sectionID string) (int64, error) {
	available, err := l.repo.GetAvailability(ctx, sectionID)
	if errors.Is(err, domain.ErrSectionNotFound) && l.syncer != nil {
		if err := l.syncer.SyncSection(ctx, sectionID); err != nil {
			return 0, err
		}
		return l.repo.GetAvailability(ctx, sectionID)
	}
	return available, err
}

func inventoryError(code, msg string) error {
	switch code {
	case repository.ErrCodeInsufficientSeats:
		return domain.ErrSoldOut
	case repository.ErrCodeSectionNotFound:
		return domain.ErrSectionNotFound
	case repository.ErrCodeInvalidQuantity:
		return domain.ErrInvalidQuantity
	case repository.ErrCodeCeilingExceeded:
		return domain.ErrSeatCeilingExceeded
	default:
		return fmt.Errorf("inventory error %s: %s", code, msg)
	}
}
