package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/service"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PriceWatchWorkerConfig holds configuration for the price watch worker
type PriceWatchWorkerConfig struct {
	// Schedule is a cron spec or descriptor (default: @every 1m)
	Schedule string
	// SweepTimeout bounds one evaluation pass (default: 30 seconds)
	SweepTimeout time.Duration
}

// DefaultPriceWatchWorkerConfig returns default configuration
func DefaultPriceWatchWorkerConfig() *PriceWatchWorkerConfig {
	return &PriceWatchWorkerConfig{
		Schedule:     "@every 1m",
		SweepTimeout: 30 * time.Second,
	}
}

// PriceWatchWorker periodically fires price alerts whose target has been reached
type PriceWatchWorker struct {
	config   *PriceWatchWorkerConfig
	watchers service.WatcherService
	log      *logger.Logger
	now      func() time.Time

	mu             sync.Mutex
	totalTriggered int64
	lastSweep      time.Time
}

// NewPriceWatchWorker creates a new price watch worker
func NewPriceWatchWorker(cfg *PriceWatchWorkerConfig, watchers service.WatcherService, log *logger.Logger) *PriceWatchWorker {
	if cfg == nil {
		cfg = DefaultPriceWatchWorkerConfig()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Get()
	}
	return &PriceWatchWorker{
		config:   cfg,
		watchers: watchers,
		log:      log,
		now:      time.Now,
	}
}

// Start schedules the sweep and blocks until ctx is cancelled.
// Overlapping sweeps are skipped and a panicking sweep is logged, not fatal.
func (w *PriceWatchWorker) Start(ctx context.Context) error {
	cronLog := cronLogger{log: w.log}
	// Recover sits inside SkipIfStillRunning so a panic still frees the slot.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))

	if _, err := c.AddFunc(w.config.Schedule, func() { _, _ = w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid watcher schedule %q: %w", w.config.Schedule, err)
	}

	w.log.Info("price watch worker started", zap.String("schedule", w.config.Schedule))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info("price watch worker stopped", zap.Int64("total_triggered", w.TotalTriggered()))
	return nil
}

// RunOnce evaluates every pending alert against the current price
func (w *PriceWatchWorker) RunOnce(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, w.config.SweepTimeout)
	defer cancel()

	now := w.now()
	fired, err := w.watchers.Evaluate(ctx, now)

	w.mu.Lock()
	w.totalTriggered += int64(len(fired))
	w.lastSweep = now
	w.mu.Unlock()

	if err != nil {
		w.log.Error("price watch sweep failed", zap.Int("triggered", len(fired)), zap.Error(err))
		return len(fired), err
	}
	if len(fired) > 0 {
		w.log.Info("price alerts triggered", zap.Int("count", len(fired)))
	}
	return len(fired), nil
}

// TotalTriggered returns the number of alerts fired since start
func (w *PriceWatchWorker) TotalTriggered() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalTriggered
}

// LastSweep returns the time of the most recent sweep
func (w *PriceWatchWorker) LastSweep() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSweep
}

// cronLogger adapts the zap logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
