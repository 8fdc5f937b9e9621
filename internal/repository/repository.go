package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

// CatalogRepository reads artists, arenas and sections
type CatalogRepository interface {
	GetArtist(ctx context.Context, id string) (*domain.Artist, error)
	// SearchArtists matches name case-insensitively; an empty query lists all
	SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error)
	GetArena(ctx context.Context, id string) (*domain.Arena, error)
	GetSection(ctx context.Context, id string) (*domain.ArenaSection, error)
}

// ConcertRepository stores concerts
type ConcertRepository interface {
	Create(ctx context.Context, concert *domain.Concert) error
	GetByID(ctx context.Context, id string) (*domain.Concert, error)
	// List returns concerts ordered by date, filtered by artist when artistID is set
	List(ctx context.Context, artistID string) ([]*domain.Concert, error)
}

// PurchaseRepository stores purchases. Create also decrements the section's
// persisted available_seats and returns domain.ErrSoldOut when none remain.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Purchase, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error)
}

// WatcherRepository stores price alerts
type WatcherRepository interface {
	Create(ctx context.Context, watcher *domain.Watcher) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Watcher, error)
	ListPending(ctx context.Context) ([]*domain.Watcher, error)
	// MarkTriggered records the firing once; it reports false when the
	// watcher had already fired.
	MarkTriggered(ctx context.Context, id string, at time.Time, price float64) (bool, error)
}

// Inventory result error codes
const (
	ErrCodeInsufficientSeats = "INSUFFICIENT_SEATS"
	ErrCodeSectionNotFound   = "SECTION_NOT_FOUND"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeCeilingExceeded   = "CEILING_EXCEEDED"
)

// ReserveResult is the outcome of an atomic seat claim
type ReserveResult struct {
	Success        bool
	AvailableSeats int64
	ErrorCode      string
	ErrorMessage   string
}

// ReleaseResult is the outcome of returning seats
type ReleaseResult struct {
	Success        bool
	AvailableSeats int64
	ErrorCode      string
	ErrorMessage   string
}

// InventoryRepository holds live per-section seat counters. Reserve and
// Release are each a single atomic step.
type InventoryRepository interface {
	ReserveSeats(ctx context.Context, sectionID string, quantity int) (*ReserveResult, error)
	ReleaseSeats(ctx context.Context, sectionID string, quantity int) (*ReleaseResult, error)
	// GetAvailability returns domain.ErrSectionNotFound for unknown counters
	GetAvailability(ctx context.Context, sectionID string) (int64, error)
	// SetSection seeds a counter if it does not exist yet
	SetSection(ctx context.Context, sectionID string, total, available int64) error
}
