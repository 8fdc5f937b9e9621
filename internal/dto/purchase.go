package dto

import (
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
)

// PurchaseRequest buys one seat in a section
type PurchaseRequest struct {
	ConcertID string `json:"concert_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
}

// PurchaseResponse is a recorded ticket
type PurchaseResponse struct {
	ID                string    `json:"id"`
	ConcertID         string    `json:"concert_id"`
	SectionID         string    `json:"section_id"`
	SectionName       string    `json:"section_name"`
	ArtistName        string    `json:"artist_name"`
	ArenaName         string    `json:"arena_name"`
	UserID            string    `json:"user_id"`
	UserEmail         string    `json:"user_email"`
	BasePrice         float64   `json:"base_price"`
	TotalPrice        float64   `json:"total_price"`
	DonationAmount    float64   `json:"donation_amount"`
	TotalFormatted    string    `json:"total_formatted"`
	DonationFormatted string    `json:"donation_formatted"`
	PurchaseDate      time.Time `json:"purchase_date"`
	EventDate         time.Time `json:"event_date"`
	ImpactStory       string    `json:"impact_story,omitempty"`
	CharityNames      []string  `json:"charity_names,omitempty"`
	ReceiptSummary    string    `json:"receipt_summary,omitempty"`
}

// ListPurchasesQuery pages through purchases
type ListPurchasesQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize applies paging defaults
func (q *ListPurchasesQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
}

// Offset is the number of rows to skip
func (q *ListPurchasesQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// PurchaseFromDomain converts a purchase for the API
func PurchaseFromDomain(p *domain.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:                p.ID,
		ConcertID:         p.ConcertID,
		SectionID:         p.SectionID,
		SectionName:       p.SectionName,
		ArtistName:        p.ArtistName,
		ArenaName:         p.ArenaName,
		UserID:            p.UserID,
		UserEmail:         p.UserEmail,
		BasePrice:         p.BasePrice(),
		TotalPrice:        p.TotalPrice,
		DonationAmount:    p.DonationAmount,
		TotalFormatted:    pricing.FormatCurrency(p.TotalPrice),
		DonationFormatted: pricing.FormatCurrency(p.DonationAmount),
		PurchaseDate:      p.PurchaseDate,
		EventDate:         p.EventDate,
		ImpactStory:       p.ImpactStory,
		CharityNames:      p.CharityNames,
		ReceiptSummary:    p.ReceiptSummary,
	}
}

// PurchasesFromDomain converts a list of purchases
func PurchasesFromDomain(ps []*domain.Purchase) []*PurchaseResponse {
	out := make([]*PurchaseResponse, len(ps))
	for i, p := range ps {
		out[i] = PurchaseFromDomain(p)
	}
	return out
}
