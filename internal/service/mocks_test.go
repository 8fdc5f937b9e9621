package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
)

// MockPurchaseRepository is a mock implementation of PurchaseRepository
type MockPurchaseRepository struct {
	CreateFunc     func(ctx context.Context, p *domain.Purchase) error
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*domain.Purchase, int, error)
	ListAllFunc    func(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error)
}

func (m *MockPurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *MockPurchaseRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Purchase, int, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*domain.Purchase{}, 0, nil
}

func (m *MockPurchaseRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, limit, offset)
	}
	return []*domain.Purchase{}, 0, nil
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	ReserveSeatsFunc    func(ctx context.Context, sectionID string, quantity int) (*repository.ReserveResult, error)
	ReleaseSeatsFunc    func(ctx context.Context, sectionID string, quantity int) (*repository.ReleaseResult, error)
	GetAvailabilityFunc func(ctx context.Context, sectionID string) (int64, error)
	SetSectionFunc      func(ctx context.Context, sectionID string, total, available int64) error
}

func (m *MockInventoryRepository) ReserveSeats(ctx context.Context, sectionID string, quantity int) (*repository.ReserveResult, error) {
	if m.ReserveSeatsFunc != nil {
		return m.ReserveSeatsFunc(ctx, sectionID, quantity)
	}
	return &repository.ReserveResult{Success: true}, nil
}

func (m *MockInventoryRepository) ReleaseSeats(ctx context.Context, sectionID string, quantity int) (*repository.ReleaseResult, error) {
	if m.ReleaseSeatsFunc != nil {
		return m.ReleaseSeatsFunc(ctx, sectionID, quantity)
	}
	return &repository.ReleaseResult{Success: true}, nil
}

func (m *MockInventoryRepository) GetAvailability(ctx context.Context, sectionID string) (int64, error) {
	if m.GetAvailabilityFunc != nil {
		return m.GetAvailabilityFunc(ctx, sectionID)
	}
	return 0, nil
}

func (m *MockInventoryRepository) SetSection(ctx context.Context, sectionID string, total, available int64) error {
	if m.SetSectionFunc != nil {
		return m.SetSectionFunc(ctx, sectionID, total, available)
	}
	return nil
}

// MockInventoryLedger is a mock implementation of InventoryLedger
type MockInventoryLedger struct {
	ReserveFunc      func(ctx context.Context, sectionID string, quantity int) (*SeatsReserved, error)
	ReleaseFunc      func(ctx context.Context, sectionID string, quantity int) error
	AvailabilityFunc func(ctx context.Context, sectionID string) (int64, error)
}

func (m *MockInventoryLedger) Reserve(ctx context.Context, sectionID string, quantity int) (*SeatsReserved, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, sectionID, quantity)
	}
	return &SeatsReserved{SectionID: sectionID, Quantity: quantity}, nil
}

func (m *MockInventoryLedger) Release(ctx context.Context, sectionID string, quantity int) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, sectionID, quantity)
	}
	return nil
}

func (m *MockInventoryLedger) Availability(ctx context.Context, sectionID string) (int64, error) {
	if m.AvailabilityFunc != nil {
		return m.AvailabilityFunc(ctx, sectionID)
	}
	return 0, nil
}

// MockNarrativeProvider is a mock implementation of NarrativeProvider
type MockNarrativeProvider struct {
	ImpactStoryFunc    func(ctx context.Context, amount float64, causeNames []string) (string, error)
	ReceiptSummaryFunc func(ctx context.Context, r ReceiptDetails) (string, error)
}

func (m *MockNarrativeProvider) ImpactStory(ctx context.Context, amount float64, causeNames []string) (string, error) {
	if m.ImpactStoryFunc != nil {
		return m.ImpactStoryFunc(ctx, amount, causeNames)
	}
	return "impact", nil
}

func (m *MockNarrativeProvider) ReceiptSummary(ctx context.Context, r ReceiptDetails) (string, error) {
	if m.ReceiptSummaryFunc != nil {
		return m.ReceiptSummaryFunc(ctx, r)
	}
	return "receipt", nil
}

// RecordingEventPublisher keeps published events in memory
type RecordingEventPublisher struct {
	mu        sync.Mutex
	Purchases []*domain.Purchase
	Watchers  []*domain.Watcher
	Err       error
}

func (p *RecordingEventPublisher) PublishPurchaseRecorded(ctx context.Context, purchase *domain.Purchase) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Purchases = append(p.Purchases, purchase)
	return p.Err
}

func (p *RecordingEventPublisher) PublishWatcherTriggered(ctx context.Context, watcher *domain.Watcher) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Watchers = append(p.Watchers, watcher)
	return p.Err
}

func (p *RecordingEventPublisher) Close() error { return nil }

// T0 is the launch instant of the test concert
var T0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testDay = 24 * time.Hour

// testFixture holds an in-memory catalog with one concert:
// base 100, multiplier 50, launch T0, floor T0+10d, show T0+20d.
type testFixture struct {
	catalog  *repository.MemoryCatalogRepository
	concerts *repository.MemoryConcertRepository
	concert  *domain.Concert
}

func newTestFixture(t *testing.T, seats int) *testFixture {
	t.Helper()
	catalog := repository.NewMemoryCatalogRepository()
	catalog.PutArtist(&domain.Artist{
		ID:   "artist-1",
		Name: "Aetheria",
		CharityCauses: []domain.CharityCause{
			{ID: "c1", Name: "Global Reforestation"},
			{ID: "c2", Name: "Clean Water Initiative"},
		},
	})
	catalog.PutArena(&domain.Arena{
		ID:   "arena-1",
		Name: "Prism Sphere",
		City: "Los Angeles",
		Sections: []domain.ArenaSection{
			{ID: "s1", ArenaID: "arena-1", Name: "Floor", BasePrice: 100, TotalSeats: seats, AvailableSeats: seats},
			{ID: "s2", ArenaID: "arena-1", Name: "Balcony", BasePrice: 40, TotalSeats: seats, AvailableSeats: seats},
		},
	})
	catalog.PutArena(&domain.Arena{
		ID:       "arena-2",
		Name:     "Nova Stadium",
		Sections: []domain.ArenaSection{{ID: "s9", ArenaID: "arena-2", Name: "Other", BasePrice: 10, TotalSeats: 1, AvailableSeats: 1}},
	})

	concerts := repository.NewMemoryConcertRepository()
	concert := &domain.Concert{
		ID:            "concert-1",
		ArtistID:      "artist-1",
		ArenaID:       "arena-1",
		Date:          T0.Add(20 * testDay),
		LaunchDate:    T0,
		FloorDate:     T0.Add(10 * testDay),
		MaxMultiplier: 50,
	}
	if err := concerts.Create(context.Background(), concert); err != nil {
		t.Fatalf("seed concert: %v", err)
	}
	return &testFixture{catalog: catalog, concerts: concerts, concert: concert}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var testBuyer = domain.Actor{UserID: "user-1", Email: "fan@example.com", Role: domain.RoleCustomer}
