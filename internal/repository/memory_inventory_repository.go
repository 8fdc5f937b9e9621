package repository

import (
	"context"
	"sync"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

type sectionCounter struct {
	total     int64
	available int64
}

// MemoryInventoryRepository holds counters in process behind one mutex.
// It serves single-instance deployments and tests.
type MemoryInventoryRepository struct {
	mu       sync.Mutex
	sections map[string]*sectionCounter
}

// NewMemoryInventoryRepository creates an empty ledger
func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{sections: make(map[string]*sectionCounter)}
}

func (r *MemoryInventoryRepository) ReserveSeats(ctx context.Context, sectionID string, quantity int) (*ReserveResult, error) {
	if quantity <= 0 {
		return &ReserveResult{ErrorCode: ErrCodeInvalidQuantity}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok {
		return &ReserveResult{ErrorCode: ErrCodeSectionNotFound}, nil
	}
	if s.available < int64(quantity) {
		return &ReserveResult{ErrorCode: ErrCodeInsufficientSeats}, nil
	}
	s.available -= int64(quantity)
	return &ReserveResult{Success: true, AvailableSeats: s.available}, nil
}

func (r *MemoryInventoryRepository) ReleaseSeats(ctx context.Context, sectionID string, quantity int) (*ReleaseResult, error) {
	if quantity <= 0 {
		return &ReleaseResult{ErrorCode: ErrCodeInvalidQuantity}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok {
		return &ReleaseResult{ErrorCode: ErrCodeSectionNotFound}, nil
	}
	if s.available+int64(quantity) > s.total {
		return &ReleaseResult{ErrorCode: ErrCodeCeilingExceeded}, nil
	}
	s.available += int64(quantity)
	return &ReleaseResult{Success: true, AvailableSeats: s.available}, nil
}

func (r *MemoryInventoryRepository) GetAvailability(ctx context.Context, sectionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok {
		return 0, domain.ErrSectionNotFound
	}
	return s.available, nil
}

func (r *MemoryInventoryRepository) SetSection(ctx context.Context, sectionID string, total, available int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sections[sectionID]; !ok {
		r.sections[sectionID] = &sectionCounter{total: total, available: available}
	}
	return nil
}

var _ InventoryRepository = (*MemoryInventoryRepository)(nil)
