package dto

import (
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
)

// CreateConcertRequest schedules a concert
type CreateConcertRequest struct {
	ArtistID      string    `json:"artist_id" binding:"required"`
	ArenaID       string    `json:"arena_id" binding:"required"`
	Date          time.Time `json:"date" binding:"required"`
	LaunchDate    time.Time `json:"launch_date" binding:"required"`
	FloorDate     time.Time `json:"floor_date" binding:"required"`
	MaxMultiplier *float64  `json:"max_multiplier" binding:"required"`
	CharityIDs    []string  `json:"charity_ids"`
}

// ListConcertsQuery filters the concert list
type ListConcertsQuery struct {
	ArtistID string `form:"artist_id"`
}

// ConcertSummary is a concert with its artist and arena names
type ConcertSummary struct {
	*domain.Concert
	ArtistName string `json:"artist_name"`
	ArenaName  string `json:"arena_name"`
	City       string `json:"city"`
}

// SectionPrice is one section's current quote
type SectionPrice struct {
	SectionID         string  `json:"section_id"`
	Name              string  `json:"name"`
	Base              float64 `json:"base"`
	Donation          float64 `json:"donation"`
	Total             float64 `json:"total"`
	TotalFormatted    string  `json:"total_formatted"`
	DonationFormatted string  `json:"donation_formatted"`
	TotalSeats        int     `json:"total_seats"`
	AvailableSeats    int64   `json:"available_seats"`
	SoldOut           bool    `json:"sold_out"`
}

// ConcertPricingResponse quotes every section of a concert at one instant
type ConcertPricingResponse struct {
	Concert           *domain.Concert `json:"concert"`
	Artist            *domain.Artist  `json:"artist"`
	Arena             *domain.Arena   `json:"arena"`
	QuotedAt          time.Time       `json:"quoted_at"`
	CurrentMultiplier float64         `json:"current_multiplier"`
	Sections          []SectionPrice  `json:"sections"`
}

// PriceCurveResponse is the decay curve of one section
type PriceCurveResponse struct {
	ConcertID string               `json:"concert_id"`
	SectionID string               `json:"section_id"`
	Points    []pricing.CurvePoint `json:"points"`
}

// PriceCurveQuery selects the section and resolution of a curve
type PriceCurveQuery struct {
	SectionID string `form:"section_id"`
	Steps     int    `form:"steps" binding:"omitempty,min=1,max=200"`
}

// NewSectionPrice builds a quote row
func NewSectionPrice(s *domain.ArenaSection, snap domain.PriceSnapshot, available int64) SectionPrice {
	return SectionPrice{
		SectionID:         s.ID,
		Name:              s.Name,
		Base:              snap.Base,
		Donation:          snap.Donation,
		Total:             snap.Total,
		TotalFormatted:    pricing.FormatCurrency(snap.Total),
		DonationFormatted: pricing.FormatCurrency(snap.Donation),
		TotalSeats:        s.TotalSeats,
		AvailableSeats:    available,
		SoldOut:           available <= 0,
	}
}
