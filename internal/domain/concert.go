package domain

import "time"

// CharityCause is a cause an artist raises donations for
type CharityCause struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Artist represents a performer and the causes they support
type Artist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Genre         string         `json:"genre"`
	Description   string         `json:"description"`
	Image         string         `json:"image"`
	CharityCauses []CharityCause `json:"charity_causes"`
}

// CausesFor returns the artist's causes listed in ids, or all of them when
// ids is empty. Unknown ids are skipped.
func (a *Artist) CausesFor(ids []string) []CharityCause {
	if len(ids) == 0 {
		return a.CharityCauses
	}
	byID := make(map[string]CharityCause, len(a.CharityCauses))
	for _, c := range a.CharityCauses {
		byID[c.ID] = c
	}
	out := make([]CharityCause, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// HasCause reports whether id is one of the artist's causes
func (a *Artist) HasCause(id string) bool {
	for _, c := range a.CharityCauses {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ArenaSection is a priced block of seats within an arena
type ArenaSection struct {
	ID             string  `json:"id"`
	ArenaID        string  `json:"arena_id"`
	Name           string  `json:"name"`
	BasePrice      float64 `json:"base_price"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
}

// Arena represents a venue
type Arena struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	City     string         `json:"city"`
	Capacity int            `json:"capacity"`
	Sections []ArenaSection `json:"sections"`
}

// Section returns the section with the given id
func (a *Arena) Section(id string) (*ArenaSection, bool) {
	for i := range a.Sections {
		if a.Sections[i].ID == id {
			return &a.Sections[i], true
		}
	}
	return nil, false
}

// Concert is one performance at one arena. Its price decays from
// LaunchDate to FloorDate.
type Concert struct {
	ID            string    `json:"id"`
	ArtistID      string    `json:"artist_id"`
	ArenaID       string    `json:"arena_id"`
	Date          time.Time `json:"date"`
	LaunchDate    time.Time `json:"launch_date"`
	FloorDate     time.Time `json:"floor_date"`
	MaxMultiplier float64   `json:"max_multiplier"`
	CharityIDs    []string  `json:"charity_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaleOpen reports whether tickets can be bought at now
func (c *Concert) SaleOpen(now time.Time) error {
	if !now.Before(c.Date) {
		return ErrEventAlreadyStarted
	}
	if now.Before(c.LaunchDate) {
		return ErrSaleNotStarted
	}
	return nil
}

// PriceSnapshot is the price of one seat at one instant
type PriceSnapshot struct {
	Base     float64 `json:"base"`
	Donation float64 `json:"donation"`
	Total    float64 `json:"total"`
}
