package metrics

import (
	"context"
	"sync"

	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Purchase counters
	PurchasesRecorded  *telemetry.Counter
	PurchasesSoldOut   *telemetry.Counter
	PurchasesFailed    *telemetry.Counter
	NarrativeFallbacks *telemetry.Counter

	// Pricing
	PriceQuotes     *telemetry.Counter
	DonationAmounts *telemetry.Histogram

	// Watchers
	WatchersTriggered *telemetry.Counter
	PendingWatchers   *telemetry.UpDownCounter

	ErrorsTotal     *telemetry.Counter
	RequestDuration *telemetry.Histogram

	initOnce sync.Once
	initErr  error
)

// Init initializes all ticket metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	PurchasesRecorded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_purchases_total",
		Description: "Total number of purchases recorded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PurchasesSoldOut, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_sold_out_rejections_total",
		Description: "Purchases rejected because the section had no seats left",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PurchasesFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_purchase_failures_total",
		Description: "Purchases that failed after a seat was reserved",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	NarrativeFallbacks, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_narrative_fallbacks_total",
		Description: "Narrative calls replaced by default text",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PriceQuotes, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_price_quotes_total",
		Description: "Concert pricing quotes served",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	DonationAmounts, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "ticket_donation_amount",
		Description: "Donation captured per purchase",
		Unit:        "{USD}",
	}, 0, 10, 50, 100, 500, 1000, 5000, 10000, 50000)
	if err != nil {
		return err
	}

	WatchersTriggered, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_watchers_triggered_total",
		Description: "Price alerts that fired",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PendingWatchers, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "ticket_watchers_pending",
		Description: "Price alerts waiting to fire",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ErrorsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_errors_total",
		Description: "Total number of errors by type",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "ticket_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10)
	if err != nil {
		return err
	}

	return nil
}

// RecordPurchase records a completed purchase and its donation
func RecordPurchase(ctx context.Context, concertID, sectionID string, donation float64) {
	attrs := []attribute.KeyValue{
		attribute.String("concert_id", concertID),
		attribute.String("section_id", sectionID),
	}
	PurchasesRecorded.Inc(ctx, attrs...)
	DonationAmounts.Record(ctx, donation, attribute.String("concert_id", concertID))
}

// RecordSoldOut records a purchase rejected for lack of seats
func RecordSoldOut(ctx context.Context, concertID, sectionID string) {
	PurchasesSoldOut.Inc(ctx,
		attribute.String("concert_id", concertID),
		attribute.String("section_id", sectionID),
	)
}

// RecordPurchaseFailure records a purchase that failed after reservation
func RecordPurchaseFailure(ctx context.Context, concertID, reason string) {
	PurchasesFailed.Inc(ctx,
		attribute.String("concert_id", concertID),
		attribute.String("reason", reason),
	)
}

// RecordNarrativeFallback records a narrative replaced by default text
func RecordNarrativeFallback(ctx context.Context, kind, reason string) {
	NarrativeFallbacks.Inc(ctx,
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	)
}

// RecordPriceQuote records a pricing view
func RecordPriceQuote(ctx context.Context, concertID string) {
	PriceQuotes.Inc(ctx, attribute.String("concert_id", concertID))
}

// RecordWatcherCreated tracks a new pending alert
func RecordWatcherCreated(ctx context.Context) {
	PendingWatchers.Add(ctx, 1)
}

// RecordWatcherTriggered records a fired alert
func RecordWatcherTriggered(ctx context.Context, concertID string) {
	WatchersTriggered.Inc(ctx, attribute.String("concert_id", concertID))
	PendingWatchers.Add(ctx, -1)
}

// RecordError records an error by type and operation
func RecordError(ctx context.Context, errorType, operation string) {
	ErrorsTotal.Inc(ctx,
		attribute.String("error_type", errorType),
		attribute.String("operation", operation),
	)
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	RequestDuration.Record(ctx, durationSeconds, attribute.String("operation", operation))
}
