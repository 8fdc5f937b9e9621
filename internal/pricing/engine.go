// Package pricing computes decaying-donation ticket prices.
//
// A ticket costs its section's base price plus a donation. The donation starts
// at basePrice*MaxMultiplier when the sale launches and falls linearly to zero
// at the concert's floor date. Every function here is pure.
package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

// DefaultMaxMultiplierCeiling bounds MaxMultiplier when no ceiling is configured
const DefaultMaxMultiplierCeiling = 1000.0

// RoundingMode selects which branches of the decay round to whole units
type RoundingMode int

const (
	// RoundInterpolated rounds only inside the decay window. The pre-launch
	// and post-floor branches return exact values.
	RoundInterpolated RoundingMode = iota
	// RoundAll rounds donation and total in every branch.
	RoundAll
)

func (m RoundingMode) String() string {
	switch m {
	case RoundAll:
		return "all"
	default:
		return "interpolated"
	}
}

// ParseRoundingMode parses the PRICING_ROUNDING_MODE setting
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interpolated":
		return RoundInterpolated, nil
	case "all":
		return RoundAll, nil
	default:
		return RoundInterpolated, fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Engine computes price snapshots under a rounding policy
type Engine struct {
	Rounding RoundingMode
}

// NewEngine creates an engine with the given rounding mode
func NewEngine(mode RoundingMode) *Engine {
	return &Engine{Rounding: mode}
}

var defaultEngine = &Engine{Rounding: RoundInterpolated}

// ComputePrice returns the price of a seat with basePrice at now.
//
// Before launch the donation is pinned at its maximum. From the floor date on
// it is zero. In between it decays linearly; inside that window total is
// round(base + rawDonation), which can differ by one unit from
// base + round(rawDonation).
func (e *Engine) ComputePrice(basePrice float64, concert domain.Concert, now time.Time) domain.PriceSnapshot {
	donation, decaying := rawDonation(basePrice, concert, now)
	return e.snapshot(basePrice, donation, decaying || e.Rounding == RoundAll)
}

// rawDonation is the unrounded donation at now. decaying is false in the
// pre-launch and post-floor branches.
func rawDonation(basePrice float64, concert domain.Concert, now time.Time) (donation float64, decaying bool) {
	maxDonation := basePrice * concert.MaxMultiplier
	if now.Before(concert.LaunchDate) {
		return maxDonation, false
	}
	if !now.Before(concert.FloorDate) {
		return 0, false
	}

	window := concert.FloorDate.Sub(concert.LaunchDate)
	elapsed := now.Sub(concert.LaunchDate)
	decayFactor := 1 - float64(elapsed)/float64(window)
	return math.Max(0, maxDonation*decayFactor), true
}

func (e *Engine) snapshot(base, donation float64, round bool) domain.PriceSnapshot {
	if !round {
		return domain.PriceSnapshot{Base: base, Donation: donation, Total: base + donation}
	}
	return domain.PriceSnapshot{
		Base:     base,
		Donation: math.Round(donation),
		Total:    math.Round(base + donation),
	}
}

// CurrentMultiplier is the donation multiple of base price in effect at now
func (e *Engine) CurrentMultiplier(concert domain.Concert, now time.Time) float64 {
	return e.ComputePrice(1, concert, now).Donation
}

// ComputePrice prices a seat with the default engine
func ComputePrice(basePrice float64, concert domain.Concert, now time.Time) domain.PriceSnapshot {
	return defaultEngine.ComputePrice(basePrice, concert, now)
}

// CurrentMultiplier reports the multiplier with the default engine
func CurrentMultiplier(concert domain.Concert, now time.Time) float64 {
	return defaultEngine.CurrentMultiplier(concert, now)
}

// ValidateConcert checks the decay window and multiplier bounds. A
// non-positive ceiling means DefaultMaxMultiplierCeiling.
func ValidateConcert(concert domain.Concert, maxMultiplierCeiling float64) error {
	if !concert.FloorDate.After(concert.LaunchDate) {
		return domain.ErrInvalidConcertWindow
	}
	if maxMultiplierCeiling <= 0 {
		maxMultiplierCeiling = DefaultMaxMultiplierCeiling
	}
	m := concert.MaxMultiplier
	if math.IsNaN(m) || m < 0 || m > maxMultiplierCeiling {
		return fmt.Errorf("%w: %v not in [0, %v]", domain.ErrInvalidMultiplier, m, maxMultiplierCeiling)
	}
	return nil
}

// ValidateBasePrice rejects non-positive or NaN seat prices
func ValidateBasePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return domain.ErrInvalidBasePrice
	}
	return nil
}
