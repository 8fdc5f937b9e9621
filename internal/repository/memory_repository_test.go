package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInventory_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInventoryRepository()
	require.NoError(t, repo.SetSection(ctx, "s1", 100, 10))

	var wg sync.WaitGroup
	var succeeded, soldOut int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := repo.ReserveSeats(ctx, "s1", 1)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if res.Success {
				atomic.AddInt64(&succeeded, 1)
			} else if res.ErrorCode == ErrCodeInsufficientSeats {
				atomic.AddInt64(&soldOut, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), succeeded)
	assert.Equal(t, int64(40), soldOut)

	available, err := repo.GetAvailability(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), available)
}

func TestMemoryInventory_Release(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInventoryRepository()
	require.NoError(t, repo.SetSection(ctx, "s1", 5, 4))

	res, err := repo.ReleaseSeats(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(5), res.AvailableSeats)

	res, err = repo.ReleaseSeats(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrCodeCeilingExceeded, res.ErrorCode)
}

func TestMemoryInventory_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInventoryRepository()

	res, err := repo.ReserveSeats(ctx, "missing", 1)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeSectionNotFound, res.ErrorCode)

	res, err = repo.ReserveSeats(ctx, "missing", 0)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeInvalidQuantity, res.ErrorCode)

	_, err = repo.GetAvailability(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSectionNotFound)
}

func TestMemoryInventory_SetSectionKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInventoryRepository()
	require.NoError(t, repo.SetSection(ctx, "s1", 10, 3))
	require.NoError(t, repo.SetSection(ctx, "s1", 10, 10))

	available, err := repo.GetAvailability(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), available)
}

func seededCatalog(t *testing.T) (*MemoryCatalogRepository, *MemoryConcertRepository) {
	t.Helper()
	catalog := NewMemoryCatalogRepository()
	concerts := NewMemoryConcertRepository()
	require.NoError(t, SeedDemoCatalog(context.Background(), catalog, concerts, time.Now()))
	return catalog, concerts
}

func TestMemoryCatalog_Lookups(t *testing.T) {
	ctx := context.Background()
	catalog, concerts := seededCatalog(t)

	artist, err := catalog.GetArtist(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Aetheria", artist.Name)
	assert.Len(t, artist.CharityCauses, 2)

	_, err = catalog.GetArtist(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrArtistNotFound)

	arena, err := catalog.GetArena(ctx, "a2")
	require.NoError(t, err)
	assert.Len(t, arena.Sections, 2)

	section, err := catalog.GetSection(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, "a1", section.ArenaID)
	assert.Equal(t, 85.0, section.BasePrice)

	_, err = catalog.GetSection(ctx, "s9")
	assert.ErrorIs(t, err, domain.ErrSectionNotFound)

	all, err := concerts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ev1", all[0].ID)

	byArtist, err := concerts.List(ctx, "2")
	require.NoError(t, err)
	require.Len(t, byArtist, 1)
	assert.Equal(t, "ev2", byArtist[0].ID)
}

func TestMemoryCatalog_SearchArtists(t *testing.T) {
	catalog, _ := seededCatalog(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"echo", []string{"2"}},
		{"  SOLARIS ", []string{"3"}},
		{"nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := catalog.SearchArtists(context.Background(), tt.query)
			require.NoError(t, err)
			ids := []string{}
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryCatalog_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	catalog, _ := seededCatalog(t)

	arena, err := catalog.GetArena(ctx, "a1")
	require.NoError(t, err)
	arena.Sections[0].AvailableSeats = 0

	section, err := catalog.GetSection(ctx, arena.Sections[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 145, section.AvailableSeats)
}

func TestMemoryPurchase_CreateDebitsSection(t *testing.T) {
	ctx := context.Background()
	catalog := NewMemoryCatalogRepository()
	catalog.PutArena(&domain.Arena{
		ID:       "a1",
		Sections: []domain.ArenaSection{{ID: "s1", ArenaID: "a1", BasePrice: 10, TotalSeats: 2, AvailableSeats: 1}},
	})
	repo := NewMemoryPurchaseRepository(catalog)

	require.NoError(t, repo.Create(ctx, &domain.Purchase{ID: "p1", UserID: "u1", SectionID: "s1"}))
	err := repo.Create(ctx, &domain.Purchase{ID: "p2", UserID: "u1", SectionID: "s1"})
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	section, err := catalog.GetSection(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, section.AvailableSeats)

	list, total, err := repo.ListByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestMemoryPurchase_ListPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository(nil)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		user := "u1"
		if id == "p5" {
			user = "u2"
		}
		require.NoError(t, repo.Create(ctx, &domain.Purchase{ID: id, UserID: user}))
	}

	page, total, err := repo.ListByUser(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "p4", page[0].ID)
	assert.Equal(t, "p3", page[1].ID)

	page, _, err = repo.ListByUser(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p1", page[1].ID)

	page, total, err = repo.ListAll(ctx, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestMemoryWatcher_MarkTriggeredOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWatcherRepository()
	require.NoError(t, repo.Create(ctx, &domain.Watcher{ID: "w1", UserID: "u1", TargetPrice: 100}))
	require.NoError(t, repo.Create(ctx, &domain.Watcher{ID: "w2", UserID: "u2", TargetPrice: 50}))

	now := time.Now()
	ok, err := repo.MarkTriggered(ctx, "w1", now, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkTriggered(ctx, "w1", now, 98)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "w2", pending[0].ID)

	mine, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Triggered())
	assert.Equal(t, 99.0, mine[0].TriggeredPrice)
}
