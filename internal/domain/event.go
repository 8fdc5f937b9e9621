package domain

import "time"

// TicketEventType names an outbound event
type TicketEventType string

const (
	EventPurchaseRecorded TicketEventType = "purchase.recorded"
	EventWatcherTriggered TicketEventType = "watcher.triggered"
)

// TicketEvent is the envelope published to the events topic
type TicketEvent struct {
	EventID    string          `json:"event_id"`
	EventType  TicketEventType `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    interface{}     `json:"payload"`
	key        string
}

// Key is the partition key: the concert, so one concert's events stay ordered
func (e *TicketEvent) Key() string {
	return e.key
}

// PurchaseRecordedPayload is published after a purchase is persisted
type PurchaseRecordedPayload struct {
	PurchaseID     string    `json:"purchase_id"`
	UserID         string    `json:"user_id"`
	ConcertID      string    `json:"concert_id"`
	SectionID      string    `json:"section_id"`
	TotalPrice     float64   `json:"total_price"`
	DonationAmount float64   `json:"donation_amount"`
	CharityNames   []string  `json:"charity_names,omitempty"`
	PurchaseDate   time.Time `json:"purchase_date"`
}

// WatcherTriggeredPayload is published when a price alert fires
type WatcherTriggeredPayload struct {
	WatcherID      string    `json:"watcher_id"`
	UserID         string    `json:"user_id"`
	ConcertID      string    `json:"concert_id"`
	SectionID      string    `json:"section_id"`
	TargetPrice    float64   `json:"target_price"`
	TriggeredPrice float64   `json:"triggered_price"`
	TriggeredAt    time.Time `json:"triggered_at"`
}

// NewPurchaseRecordedEvent builds the event for p
func NewPurchaseRecordedEvent(eventID string, p *Purchase) *TicketEvent {
	return &TicketEvent{
		EventID:    eventID,
		EventType:  EventPurchaseRecorded,
		OccurredAt: time.Now().UTC(),
		Payload: PurchaseRecordedPayload{
			PurchaseID:     p.ID,
			UserID:         p.UserID,
			ConcertID:      p.ConcertID,
			SectionID:      p.SectionID,
			TotalPrice:     p.TotalPrice,
			DonationAmount: p.DonationAmount,
			CharityNames:   p.CharityNames,
			PurchaseDate:   p.PurchaseDate,
		},
		key: p.ConcertID,
	}
}

// NewWatcherTriggeredEvent builds the event for a fired watcher
func NewWatcherTriggeredEvent(eventID string, w *Watcher) *TicketEvent {
	var at time.Time
	if w.TriggeredAt != nil {
		at = *w.TriggeredAt
	}
	return &TicketEvent{
		EventID:    eventID,
		EventType:  EventWatcherTriggered,
		OccurredAt: time.Now().UTC(),
		Payload: WatcherTriggeredPayload{
			WatcherID:      w.ID,
			UserID:         w.UserID,
			ConcertID:      w.ConcertID,
			SectionID:      w.SectionID,
			TargetPrice:    w.TargetPrice,
			TriggeredPrice: w.TriggeredPrice,
			TriggeredAt:    at,
		},
		key: w.ConcertID,
	}
}
