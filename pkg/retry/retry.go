package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrMaxRetriesExceeded is returned when every attempt failed
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// InitialInterval is the first backoff (default: 50ms)
	InitialInterval time.Duration
	// MaxInterval caps the backoff (default: 2s)
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry (default: 2.0)
	Multiplier float64
	// JitterFactor spreads each wait by ±factor (0-1)
	JitterFactor float64
}

// DefaultConfig returns a short backoff suited to in-request cleanup:
// 50ms, 100ms, 200ms.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError stops the retry loop
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports how a retried operation ended
type Result struct {
	Err       error // nil on success
	Attempts  int
	LastError error
}

// Retrier runs operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a Retrier, filling zero fields with defaults
func New(config *Config) *Retrier {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	c := *config
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = def.Multiplier
	}
	c.JitterFactor = math.Min(math.Max(c.JitterFactor, 0), 1)
	return &Retrier{config: &c}
}

// Do runs op until it succeeds, returns a permanent error, runs out of
// attempts, or ctx ends.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	result := &Result{}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		result.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			result.Err = nil
			return result
		}
		result.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			result.Err = perm.Err
			result.LastError = perm.Err
			return result
		}
		if attempt >= r.config.MaxRetries {
			result.Err = ErrMaxRetriesExceeded
			return result
		}

		timer := time.NewTimer(r.interval(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Err = ctx.Err()
			return result
		case <-timer.C:
		}
	}
}

func (r *Retrier) interval(attempt int) time.Duration {
	d := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if j := r.config.JitterFactor; j > 0 {
		d += (rand.Float64()*2 - 1) * d * j
	}
	if d > float64(r.config.MaxInterval) {
		d = float64(r.config.MaxInterval)
	}
	if d <= 0 {
		d = float64(r.config.InitialInterval)
	}
	return time.Duration(d)
}
