package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseHarness struct {
	fixture   *testFixture
	inventory *repository.MemoryInventoryRepository
	purchases *repository.MemoryPurchaseRepository
	publisher *RecordingEventPublisher
	service   PurchaseService
}

func newPurchaseHarness(t *testing.T, seats int, at time.Time, narrative NarrativeProvider) *purchaseHarness {
	t.Helper()
	f := newTestFixture(t, seats)
	inventory := repository.NewMemoryInventoryRepository()
	ledger := NewInventoryLedger(inventory, NewSectionSyncer(f.catalog, inventory))
	purchases := repository.NewMemoryPurchaseRepository(f.catalog)
	publisher := &RecordingEventPublisher{}
	recorder := NewPurchaseRecorder(purchases, narrative, 50*time.Millisecond)

	svc := NewPurchaseService(f.catalog, f.concerts, purchases, ledger, recorder, publisher,
		&PurchaseServiceConfig{Clock: fixedClock(at)})
	return &purchaseHarness{
		fixture:   f,
		inventory: inventory,
		purchases: purchases,
		publisher: publisher,
		service:   svc,
	}
}

func TestPurchaseService_Purchase(t *testing.T) {
	tests := []struct {
		name         string
		at           time.Time
		wantTotal    float64
		wantDonation float64
	}{
		{"midway through decay", T0.Add(5 * testDay), 2600, 2500},
		{"after floor", T0.Add(11 * testDay), 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPurchaseHarness(t, 10, tt.at, &MockNarrativeProvider{})

			p, err := h.service.Purchase(context.Background(), testBuyer,
				&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, p.TotalPrice)
			assert.Equal(t, tt.wantDonation, p.DonationAmount)
			assert.Equal(t, "user-1", p.UserID)
			assert.Equal(t, tt.at, p.PurchaseDate)

			available, err := h.inventory.GetAvailability(context.Background(), "s1")
			require.NoError(t, err)
			assert.Equal(t, int64(9), available)

			require.Len(t, h.publisher.Purchases, 1)
			assert.Equal(t, p.ID, h.publisher.Purchases[0].ID)
		})
	}
}

func TestPurchaseService_NarrativeFailureStillSucceeds(t *testing.T) {
	narrative := &MockNarrativeProvider{
		ImpactStoryFunc: func(ctx context.Context, amount float64, causeNames []string) (string, error) {
			return "", errors.New("provider down")
		},
	}
	h := newPurchaseHarness(t, 10, T0.Add(5*testDay), narrative)

	p, err := h.service.Purchase(context.Background(), testBuyer,
		&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, FallbackImpactStory, p.ImpactStory)
	assert.Equal(t, 2600.0, p.TotalPrice)
	assert.Equal(t, 2500.0, p.DonationAmount)
}

func TestPurchaseService_SoldOut(t *testing.T) {
	h := newPurchaseHarness(t, 1, T0.Add(5*testDay), &MockNarrativeProvider{})
	ctx := context.Background()
	req := &dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"}

	_, err := h.service.Purchase(ctx, testBuyer, req)
	require.NoError(t, err)

	p, err := h.service.Purchase(ctx, testBuyer, req)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	_, total, err := h.purchases.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPurchaseService_SaleWindow(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"before launch", T0.Add(-time.Hour), domain.ErrSaleNotStarted},
		{"at show time", T0.Add(20 * testDay), domain.ErrEventAlreadyStarted},
		{"after show", T0.Add(30 * testDay), domain.ErrEventAlreadyStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPurchaseHarness(t, 10, tt.at, &MockNarrativeProvider{})

			_, err := h.service.Purchase(context.Background(), testBuyer,
				&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = h.inventory.GetAvailability(context.Background(), "s1")
			assert.ErrorIs(t, err, domain.ErrSectionNotFound, "inventory must stay untouched")
		})
	}
}

func TestPurchaseService_LookupErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.PurchaseRequest
		wantErr error
	}{
		{"unknown concert", dto.PurchaseRequest{ConcertID: "nope", SectionID: "s1"}, domain.ErrConcertNotFound},
		{"unknown section", dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "nope"}, domain.ErrSectionNotFound},
		{"section of another arena", dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s9"}, domain.ErrSectionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPurchaseHarness(t, 10, T0.Add(5*testDay), &MockNarrativeProvider{})
			_, err := h.service.Purchase(context.Background(), testBuyer, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPurchaseService_CancelledContext(t *testing.T) {
	reserved := false
	ledger := &MockInventoryLedger{
		ReserveFunc: func(ctx context.Context, sectionID string, quantity int) (*SeatsReserved, error) {
			reserved = true
			return &SeatsReserved{}, nil
		},
	}
	f := newTestFixture(t, 10)
	svc := NewPurchaseService(f.catalog, f.concerts, &MockPurchaseRepository{}, ledger,
		NewPurchaseRecorder(&MockPurchaseRepository{}, nil, 0), nil,
		&PurchaseServiceConfig{Clock: fixedClock(T0.Add(5 * testDay))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Purchase(ctx, testBuyer, &dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, reserved)
}

func TestPurchaseService_PersistFailureReleasesSeat(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantErr   error
	}{
		{"database error", errors.New("connection reset"), nil},
		{"persisted count exhausted", domain.ErrSoldOut, domain.ErrSoldOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var released []string
			ledger := &MockInventoryLedger{
				ReleaseFunc: func(ctx context.Context, sectionID string, quantity int) error {
					released = append(released, sectionID)
					return nil
				},
			}
			repo := &MockPurchaseRepository{
				CreateFunc: func(ctx context.Context, p *domain.Purchase) error { return tt.createErr },
			}
			publisher := &RecordingEventPublisher{}
			f := newTestFixture(t, 10)
			svc := NewPurchaseService(f.catalog, f.concerts, repo, ledger,
				NewPurchaseRecorder(repo, &MockNarrativeProvider{}, time.Second), publisher,
				&PurchaseServiceConfig{Clock: fixedClock(T0.Add(5 * testDay))})

			p, err := svc.Purchase(context.Background(), testBuyer,
				&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.createErr)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			}
			assert.Equal(t, []string{"s1"}, released)
			assert.Empty(t, publisher.Purchases)
		})
	}
}

func TestPurchaseService_PublishFailureIgnored(t *testing.T) {
	h := newPurchaseHarness(t, 10, T0.Add(5*testDay), &MockNarrativeProvider{})
	h.publisher.Err = errors.New("broker down")

	p, err := h.service.Purchase(context.Background(), testBuyer,
		&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPurchaseService_ListPurchases(t *testing.T) {
	h := newPurchaseHarness(t, 10, T0.Add(5*testDay), &MockNarrativeProvider{})
	ctx := context.Background()
	req := &dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s2"}

	other := domain.Actor{UserID: "user-2", Role: domain.RoleCustomer}
	for i := 0; i < 3; i++ {
		_, err := h.service.Purchase(ctx, testBuyer, req)
		require.NoError(t, err)
	}
	_, err := h.service.Purchase(ctx, other, req)
	require.NoError(t, err)

	mine, total, err := h.service.ListUserPurchases(ctx, "user-1", &dto.ListPurchasesQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, mine, 2)

	_, _, err = h.service.ListAllPurchases(ctx, testBuyer, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := domain.Actor{UserID: "admin", Role: domain.RoleAdmin}
	all, total, err := h.service.ListAllPurchases(ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
}

func TestPurchaseService_ReleaseRetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name        string
		releaseErrs []error
		wantCalls   int
	}{
		{"recovers after transient error", []error{errors.New("i/o timeout"), nil}, 2},
		{"ceiling violation is not retried", []error{domain.ErrSeatCeilingExceeded}, 1},
		{"gives up after max retries", []error{errors.New("a"), errors.New("b"), errors.New("c")}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			ledger := &MockInventoryLedger{
				ReleaseFunc: func(ctx context.Context, sectionID string, quantity int) error {
					err := tt.releaseErrs[calls]
					calls++
					return err
				},
			}
			repo := &MockPurchaseRepository{
				CreateFunc: func(ctx context.Context, p *domain.Purchase) error { return errors.New("connection reset") },
			}
			f := newTestFixture(t, 10)
			svc := NewPurchaseService(f.catalog, f.concerts, repo, ledger,
				NewPurchaseRecorder(repo, &MockNarrativeProvider{}, time.Second), &RecordingEventPublisher{},
				&PurchaseServiceConfig{
					Clock:        fixedClock(T0.Add(5 * testDay)),
					ReleaseRetry: &retry.Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1},
				})

			_, err := svc.Purchase(context.Background(), testBuyer,
				&dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
			assert.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
