package dto

// CreateWatcherRequest registers a price alert
type CreateWatcherRequest struct {
	ConcertID   string  `json:"concert_id" binding:"required"`
	SectionID   string  `json:"section_id" binding:"required"`
	TargetPrice float64 `json:"target_price" binding:"required"`
}
