package domain

import "time"

// Purchase is the immutable record of a bought ticket
type Purchase struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	ConcertID      string    `json:"concert_id"`
	SectionID      string    `json:"section_id"`
	SectionName    string    `json:"section_name"`
	ArtistName     string    `json:"artist_name"`
	ArenaName      string    `json:"arena_name"`
	TotalPrice     float64   `json:"total_price"`
	DonationAmount float64   `json:"donation_amount"`
	PurchaseDate   time.Time `json:"purchase_date"`
	EventDate      time.Time `json:"event_date"`
	ImpactStory    string    `json:"impact_story,omitempty"`
	CharityNames   []string  `json:"charity_names,omitempty"`
	ReceiptSummary string    `json:"receipt_summary,omitempty"`
}

// BasePrice is the seat price without donation
func (p *Purchase) BasePrice() float64 {
	return p.TotalPrice - p.DonationAmount
}

// Watcher is a price alert for one section of one concert
type Watcher struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ConcertID      string     `json:"concert_id"`
	SectionID      string     `json:"section_id"`
	TargetPrice    float64    `json:"target_price"`
	CreatedAt      time.Time  `json:"created_at"`
	TriggeredAt    *time.Time `json:"triggered_at,omitempty"`
	TriggeredPrice float64    `json:"triggered_price,omitempty"`
}

// Triggered reports whether the alert has fired
func (w *Watcher) Triggered() bool {
	return w.TriggeredAt != nil
}
