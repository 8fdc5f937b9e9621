package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/metrics"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Text used when the narrative provider cannot help
const (
	FallbackImpactStory    = "Your contribution directly supports critical initiatives and sustainable growth for this cause."
	EmptyImpactStory       = "Every dollar helps drive change in our communities."
	FallbackReceiptSummary = "Thank you for your purchase and your generous contribution."
	EmptyReceiptSummary    = "Receipt confirmed."
)

// DefaultNarrativeTimeout bounds each narrative call
const DefaultNarrativeTimeout = 3 * time.Second

// PurchaseInput is everything needed to record one ticket
type PurchaseInput struct {
	Buyer    domain.Actor
	Concert  *domain.Concert
	Artist   *domain.Artist
	Arena    *domain.Arena
	Section  *domain.ArenaSection
	Snapshot domain.PriceSnapshot
	At       time.Time
}

// PurchaseRecorder turns a completed reservation into a stored Purchase
type PurchaseRecorder interface {
	// Record returns persistence errors only; narrative failures are absorbed
	Record(ctx context.Context, in PurchaseInput) (*domain.Purchase, error)
}

type purchaseRecorder struct {
	repo      repository.PurchaseRepository
	narrative NarrativeProvider
	timeout   time.Duration
}

// NewPurchaseRecorder creates a recorder. A nil narrative provider always
// yields the fallback texts.
func NewPurchaseRecorder(repo repository.PurchaseRepository, narrative NarrativeProvider, timeout time.Duration) PurchaseRecorder {
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}
	return &purchaseRecorder{
		repo:      repo,
		narrative: narrative,
		timeout:   timeout,
	}
}

func (r *purchaseRecorder) Record(ctx context.Context, in PurchaseInput) (*domain.Purchase, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.purchase_recorder.record")
	defer span.End()

	causes := in.Artist.CausesFor(in.Concert.CharityIDs)
	charityNames := make([]string, len(causes))
	for i, c := range causes {
		charityNames[i] = c.Name
	}

	p := &domain.Purchase{
		ID:             uuid.New().String(),
		UserID:         in.Buyer.UserID,
		UserEmail:      in.Buyer.Email,
		ConcertID:      in.Concert.ID,
		SectionID:      in.Section.ID,
		SectionName:    in.Section.Name,
		ArtistName:     in.Artist.Name,
		ArenaName:      in.Arena.Name,
		TotalPrice:     in.Snapshot.Total,
		DonationAmount: in.Snapshot.Donation,
		PurchaseDate:   in.At,
		EventDate:      in.Concert.Date,
		CharityNames:   charityNames,
	}
	span.SetAttributes(
		attribute.String("purchase_id", p.ID),
		attribute.Float64("total_price", p.TotalPrice),
		attribute.Float64("donation_amount", p.DonationAmount),
	)

	p.ImpactStory = r.narrate(ctx, "impact_story", FallbackImpactStory, EmptyImpactStory,
		func(ctx context.Context) (string, error) {
			return r.narrative.ImpactStory(ctx, p.DonationAmount, charityNames)
		})
	p.ReceiptSummary = r.narrate(ctx, "receipt_summary", FallbackReceiptSummary, EmptyReceiptSummary,
		func(ctx context.Context) (string, error) {
			return r.narrative.ReceiptSummary(ctx, ReceiptDetails{
				ArtistName: p.ArtistName,
				ArenaName:  p.ArenaName,
				Total:      p.TotalPrice,
				Donation:   p.DonationAmount,
			})
		})

	if err := r.repo.Create(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return p, nil
}

type narrativeResult struct {
	text string
	err  error
}

// narrate runs fn under the recorder timeout. Errors, timeouts and panics
// yield fallback; an empty answer yields empty.
func (r *purchaseRecorder) narrate(ctx context.Context, kind, fallback, empty string, fn func(context.Context) (string, error)) string {
	if r.narrative == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan narrativeResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- narrativeResult{err: fmt.Errorf("%w: panic: %v", domain.ErrNarrativeUnavailable, rec)}
			}
		}()
		text, err := fn(ctx)
		done <- narrativeResult{text: text, err: err}
	}()

	var res narrativeResult
	select {
	case res = <-done:
	case <-ctx.Done():
	}
	// an answer that lands after the deadline is discarded
	if err := ctx.Err(); err != nil {
		res = narrativeResult{err: fmt.Errorf("%w: %v", domain.ErrNarrativeUnavailable, err)}
	}

	if res.err != nil {
		logger.WithContext(ctx).Warn("narrative unavailable, using fallback",
			zap.String("kind", kind),
			zap.Error(res.err),
		)
		metrics.RecordNarrativeFallback(ctx, kind, "error")
		return fallback
	}
	if res.text == "" {
		metrics.RecordNarrativeFallback(ctx, kind, "empty")
		return empty
	}
	return res.text
}
