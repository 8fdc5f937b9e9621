package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/pkg/middleware"
)

// MockCatalogService is a mock implementation of CatalogService for testing
type MockCatalogService struct {
	CreateConcertFunc func(ctx context.Context, actor domain.Actor, req *dto.CreateConcertRequest) (*domain.Concert, error)
	GetConcertFunc    func(ctx context.Context, id string) (*dto.ConcertSummary, error)
	ListConcertsFunc  func(ctx context.Context, q *dto.ListConcertsQuery) ([]*dto.ConcertSummary, error)
	SearchArtistsFunc func(ctx context.Context, query string) ([]*domain.Artist, error)
	GetArtistFunc     func(ctx context.Context, id string) (*domain.Artist, error)
	GetArenaFunc      func(ctx context.Context, id string) (*domain.Arena, error)
}

func (m *MockCatalogService) CreateConcert(ctx context.Context, actor domain.Actor, req *dto.CreateConcertRequest) (*domain.Concert, error) {
	if m.CreateConcertFunc != nil {
		return m.CreateConcertFunc(ctx, actor, req)
	}
	return &domain.Concert{ID: "concert-new"}, nil
}

func (m *MockCatalogService) GetConcert(ctx context.Context, id string) (*dto.ConcertSummary, error) {
	if m.GetConcertFunc != nil {
		return m.GetConcertFunc(ctx, id)
	}
	return nil, domain.ErrConcertNotFound
}

func (m *MockCatalogService) ListConcerts(ctx context.Context, q *dto.ListConcertsQuery) ([]*dto.ConcertSummary, error) {
	if m.ListConcertsFunc != nil {
		return m.ListConcertsFunc(ctx, q)
	}
	return []*dto.ConcertSummary{}, nil
}

func (m *MockCatalogService) SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error) {
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, query)
	}
	return []*domain.Artist{}, nil
}

func (m *MockCatalogService) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	if m.GetArtistFunc != nil {
		return m.GetArtistFunc(ctx, id)
	}
	return nil, domain.ErrArtistNotFound
}

func (m *MockCatalogService) GetArena(ctx context.Context, id string) (*domain.Arena, error) {
	if m.GetArenaFunc != nil {
		return m.GetArenaFunc(ctx, id)
	}
	return nil, domain.ErrArenaNotFound
}

// MockPricingService is a mock implementation of PricingService for testing
type MockPricingService struct {
	GetConcertPricingFunc func(ctx context.Context, concertID string, at time.Time) (*dto.ConcertPricingResponse, error)
	GetPriceCurveFunc     func(ctx context.Context, concertID string, q *dto.PriceCurveQuery) (*dto.PriceCurveResponse, error)
}

func (m *MockPricingService) GetConcertPricing(ctx context.Context, concertID string, at time.Time) (*dto.ConcertPricingResponse, error) {
	if m.GetConcertPricingFunc != nil {
		return m.GetConcertPricingFunc(ctx, concertID, at)
	}
	return &dto.ConcertPricingResponse{}, nil
}

func (m *MockPricingService) GetPriceCurve(ctx context.Context, concertID string, q *dto.PriceCurveQuery) (*dto.PriceCurveResponse, error) {
	if m.GetPriceCurveFunc != nil {
		return m.GetPriceCurveFunc(ctx, concertID, q)
	}
	return &dto.PriceCurveResponse{ConcertID: concertID}, nil
}

// MockPurchaseService is a mock implementation of PurchaseService for testing
type MockPurchaseService struct {
	PurchaseFunc          func(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error)
	ListUserPurchasesFunc func(ctx context.Context, userID string, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error)
	ListAllPurchasesFunc  func(ctx context.Context, actor domain.Actor, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error)
}

func (m *MockPurchaseService) Purchase(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error) {
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, buyer, req)
	}
	return &domain.Purchase{ID: "p1", ConcertID: req.ConcertID, SectionID: req.SectionID, UserID: buyer.UserID}, nil
}

func (m *MockPurchaseService) ListUserPurchases(ctx context.Context, userID string, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
	if m.ListUserPurchasesFunc != nil {
		return m.ListUserPurchasesFunc(ctx, userID, q)
	}
	return []*domain.Purchase{}, 0, nil
}

func (m *MockPurchaseService) ListAllPurchases(ctx context.Context, actor domain.Actor, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
	if m.ListAllPurchasesFunc != nil {
		return m.ListAllPurchasesFunc(ctx, actor, q)
	}
	return []*domain.Purchase{}, 0, nil
}

// MockWatcherService is a mock implementation of WatcherService for testing
type MockWatcherService struct {
	CreateWatcherFunc func(ctx context.Context, userID string, req *dto.CreateWatcherRequest) (*domain.Watcher, error)
	ListWatchersFunc  func(ctx context.Context, userID string) ([]*domain.Watcher, error)
	EvaluateFunc      func(ctx context.Context, now time.Time) ([]*domain.Watcher, error)
}

func (m *MockWatcherService) CreateWatcher(ctx context.Context, userID string, req *dto.CreateWatcherRequest) (*domain.Watcher, error) {
	if m.CreateWatcherFunc != nil {
		return m.CreateWatcherFunc(ctx, userID, req)
	}
	return &domain.Watcher{ID: "w1", UserID: userID}, nil
}

func (m *MockWatcherService) ListWatchers(ctx context.Context, userID string) ([]*domain.Watcher, error) {
	if m.ListWatchersFunc != nil {
		return m.ListWatchersFunc(ctx, userID)
	}
	return []*domain.Watcher{}, nil
}

func (m *MockWatcherService) Evaluate(ctx context.Context, now time.Time) ([]*domain.Watcher, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, now)
	}
	return []*domain.Watcher{}, nil
}

// testIdentity stands in for the JWT middleware
type testIdentity struct {
	userID   string
	email    string
	role     string
	artistID string
}

var (
	customerIdentity = &testIdentity{userID: "user-1", email: "fan@example.com", role: "customer"}
	adminIdentity    = &testIdentity{userID: "admin-1", email: "ops@example.com", role: "admin"}
)

func newTestRouter(id *testIdentity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if id != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyUserID, id.userID)
			c.Set(middleware.ContextKeyEmail, id.email)
			c.Set(middleware.ContextKeyRole, id.role)
			c.Set(middleware.ContextKeyArtistID, id.artistID)
			c.Next()
		})
	}
	return router
}
