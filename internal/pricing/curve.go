package pricing

import (
	"math"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

// DefaultCurveSteps is the number of intervals in a price curve
const DefaultCurveSteps = 10

// CurvePoint is one sample of the decay curve
type CurvePoint struct {
	DaysUntilFloor int       `json:"days_until_floor"`
	At             time.Time `json:"at"`
	Base           float64   `json:"base"`
	Donation       float64   `json:"donation"`
	Total          float64   `json:"total"`
}

// Curve samples the price at steps+1 evenly spaced instants from launch to
// floor inclusive. Donations are the unrounded decay values; the rounding
// mode applies to charged prices, not to the chart.
func (e *Engine) Curve(basePrice float64, concert domain.Concert, steps int) []CurvePoint {
	if steps <= 0 {
		steps = DefaultCurveSteps
	}

	window := concert.FloorDate.Sub(concert.LaunchDate)
	points := make([]CurvePoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		at := concert.LaunchDate.Add(time.Duration(float64(window) * float64(i) / float64(steps)))
		if i == steps {
			at = concert.FloorDate
		}
		donation, _ := rawDonation(basePrice, concert, at)
		points = append(points, CurvePoint{
			DaysUntilFloor: int(math.Round(concert.FloorDate.Sub(at).Hours() / 24)),
			At:             at,
			Base:           basePrice,
			Donation:       donation,
			Total:          basePrice + donation,
		})
	}
	return points
}

// Curve samples the default engine
func Curve(basePrice float64, concert domain.Concert, steps int) []CurvePoint {
	return defaultEngine.Curve(basePrice, concert, steps)
}
