package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

// MemoryCatalogRepository holds artists and arenas in process
type MemoryCatalogRepository struct {
	mu      sync.RWMutex
	artists map[string]*domain.Artist
	arenas  map[string]*domain.Arena
	order   []string // artist insertion order
}

// NewMemoryCatalogRepository creates an empty catalog
func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		artists: make(map[string]*domain.Artist),
		arenas:  make(map[string]*domain.Arena),
	}
}

// PutArtist adds or replaces an artist
func (r *MemoryCatalogRepository) PutArtist(a *domain.Artist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.artists[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}
	cp := *a
	cp.CharityCauses = append([]domain.CharityCause(nil), a.CharityCauses...)
	r.artists[a.ID] = &cp
}

// PutArena adds or replaces an arena and its sections
func (r *MemoryCatalogRepository) PutArena(a *domain.Arena) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arenas[a.ID] = copyArena(a)
}

func copyArena(a *domain.Arena) *domain.Arena {
	cp := *a
	cp.Sections = append([]domain.ArenaSection(nil), a.Sections...)
	return &cp
}

func (r *MemoryCatalogRepository) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artists[id]
	if !ok {
		return nil, domain.ErrArtistNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryCatalogRepository) SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*domain.Artist, 0, len(r.order))
	for _, id := range r.order {
		a := r.artists[id]
		if q == "" || strings.Contains(strings.ToLower(a.Name), q) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) GetArena(ctx context.Context, id string) (*domain.Arena, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.arenas[id]
	if !ok {
		return nil, domain.ErrArenaNotFound
	}
	return copyArena(a), nil
}

func (r *MemoryCatalogRepository) GetSection(ctx context.Context, id string) (*domain.ArenaSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.arenas {
		if s, ok := a.Section(id); ok {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSectionNotFound
}

// takeSeat decrements a section's persisted count, mirroring the
// conditional update of the SQL store.
func (r *MemoryCatalogRepository) takeSeat(sectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.arenas {
		if s, ok := a.Section(sectionID); ok {
			if s.AvailableSeats < 1 {
				return domain.ErrSoldOut
			}
			s.AvailableSeats--
			return nil
		}
	}
	return domain.ErrSectionNotFound
}

// MemoryConcertRepository holds concerts in process
type MemoryConcertRepository struct {
	mu       sync.RWMutex
	concerts map[string]*domain.Concert
}

// NewMemoryConcertRepository creates an empty concert store
func NewMemoryConcertRepository() *MemoryConcertRepository {
	return &MemoryConcertRepository{concerts: make(map[string]*domain.Concert)}
}

func (r *MemoryConcertRepository) Create(ctx context.Context, concert *domain.Concert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *concert
	cp.CharityIDs = append([]string(nil), concert.CharityIDs...)
	r.concerts[concert.ID] = &cp
	return nil
}

func (r *MemoryConcertRepository) GetByID(ctx context.Context, id string) (*domain.Concert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.concerts[id]
	if !ok {
		return nil, domain.ErrConcertNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryConcertRepository) List(ctx context.Context, artistID string) ([]*domain.Concert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Concert, 0, len(r.concerts))
	for _, c := range r.concerts {
		if artistID == "" || c.ArtistID == artistID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MemoryPurchaseRepository is an append-only purchase log
type MemoryPurchaseRepository struct {
	mu        sync.RWMutex
	catalog   *MemoryCatalogRepository
	purchases []*domain.Purchase
}

// NewMemoryPurchaseRepository creates a purchase log that debits seats from catalog
func NewMemoryPurchaseRepository(catalog *MemoryCatalogRepository) *MemoryPurchaseRepository {
	return &MemoryPurchaseRepository{catalog: catalog}
}

func (r *MemoryPurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	if r.catalog != nil {
		if err := r.catalog.takeSeat(p.SectionID); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.purchases = append(r.purchases, &cp)
	return nil
}

func (r *MemoryPurchaseRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Purchase, int, error) {
	return r.list(func(p *domain.Purchase) bool { return p.UserID == userID }, limit, offset)
}

func (r *MemoryPurchaseRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	return r.list(func(*domain.Purchase) bool { return true }, limit, offset)
}

// list returns newest first
func (r *MemoryPurchaseRepository) list(match func(*domain.Purchase) bool, limit, offset int) ([]*domain.Purchase, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Purchase
	for i := len(r.purchases) - 1; i >= 0; i-- {
		if match(r.purchases[i]) {
			matched = append(matched, r.purchases[i])
		}
	}
	total := len(matched)
	if offset >= total {
		return []*domain.Purchase{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]*domain.Purchase, 0, end-offset)
	for _, p := range matched[offset:end] {
		cp := *p
		out = append(out, &cp)
	}
	return out, total, nil
}

// MemoryWatcherRepository holds price alerts in process
type MemoryWatcherRepository struct {
	mu       sync.Mutex
	watchers []*domain.Watcher
}

// NewMemoryWatcherRepository creates an empty watcher store
func NewMemoryWatcherRepository() *MemoryWatcherRepository {
	return &MemoryWatcherRepository{}
}

func (r *MemoryWatcherRepository) Create(ctx context.Context, w *domain.Watcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.watchers = append(r.watchers, &cp)
	return nil
}

func (r *MemoryWatcherRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Watcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Watcher{}
	for _, w := range r.watchers {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryWatcherRepository) ListPending(ctx context.Context) ([]*domain.Watcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Watcher{}
	for _, w := range r.watchers {
		if !w.Triggered() {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryWatcherRepository) MarkTriggered(ctx context.Context, id string, at time.Time, price float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		if w.ID == id {
			if w.Triggered() {
				return false, nil
			}
			t := at
			w.TriggeredAt = &t
			w.TriggeredPrice = price
			return true, nil
		}
	}
	return false, nil
}

var (
	_ CatalogRepository  = (*MemoryCatalogRepository)(nil)
	_ ConcertRepository  = (*MemoryConcertRepository)(nil)
	_ PurchaseRepository = (*MemoryPurchaseRepository)(nil)
	_ WatcherRepository  = (*MemoryWatcherRepository)(nil)
)
