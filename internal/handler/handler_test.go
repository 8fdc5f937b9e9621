package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *response.ErrorData {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrSoldOut, http.StatusConflict, "SOLD_OUT"},
		{fmt.Errorf("wrapped: %w", domain.ErrSoldOut), http.StatusConflict, "SOLD_OUT"},
		{domain.ErrSaleNotStarted, http.StatusConflict, "SALE_NOT_STARTED"},
		{domain.ErrEventAlreadyStarted, http.StatusConflict, "EVENT_STARTED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrConcertNotFound, http.StatusNotFound, "CONCERT_NOT_FOUND"},
		{domain.ErrSectionNotFound, http.StatusNotFound, "SECTION_NOT_FOUND"},
		{fmt.Errorf("lookup: %w", domain.ErrArtistNotFound), http.StatusNotFound, "ARTIST_NOT_FOUND"},
		{domain.ErrArenaNotFound, http.StatusNotFound, "ARENA_NOT_FOUND"},
		{fmt.Errorf("release: %w", domain.ErrSeatCeilingExceeded), http.StatusConflict, "SEAT_CEILING_EXCEEDED"},
		{domain.ErrInvalidConcertWindow, http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: c9", domain.ErrUnknownCharity), http.StatusBadRequest, "VALIDATION_ERROR"},
		{errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &MockPurchaseService{
				PurchaseFunc: func(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(customerIdentity)
			router.POST("/purchases", NewPurchaseHandler(svc).Purchase)

			w := doRequest(t, router, http.MethodPost, "/purchases", dto.PurchaseRequest{ConcertID: "c", SectionID: "s"})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestPurchaseHandler_Purchase(t *testing.T) {
	var got domain.Actor
	svc := &MockPurchaseService{
		PurchaseFunc: func(ctx context.Context, buyer domain.Actor, req *dto.PurchaseRequest) (*domain.Purchase, error) {
			got = buyer
			return &domain.Purchase{
				ID:             "p1",
				ConcertID:      req.ConcertID,
				SectionID:      req.SectionID,
				UserID:         buyer.UserID,
				TotalPrice:     2600,
				DonationAmount: 2500,
				ImpactStory:    "story",
			}, nil
		},
	}
	router := newTestRouter(customerIdentity)
	router.POST("/purchases", NewPurchaseHandler(svc).Purchase)

	w := doRequest(t, router, http.MethodPost, "/purchases", dto.PurchaseRequest{ConcertID: "concert-1", SectionID: "s1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    dto.PurchaseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "p1", resp.Data.ID)
	assert.Equal(t, 100.0, resp.Data.BasePrice)
	assert.Equal(t, "$2,600", resp.Data.TotalFormatted)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "fan@example.com", got.Email)
	assert.Equal(t, domain.RoleCustomer, got.Role)
}

func TestPurchaseHandler_PurchaseValidation(t *testing.T) {
	router := newTestRouter(customerIdentity)
	router.POST("/purchases", NewPurchaseHandler(&MockPurchaseService{}).Purchase)

	w := doRequest(t, router, http.MethodPost, "/purchases", map[string]string{"concert_id": "c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
}

func TestPurchaseHandler_Unauthenticated(t *testing.T) {
	router := newTestRouter(nil)
	router.POST("/purchases", NewPurchaseHandler(&MockPurchaseService{}).Purchase)

	w := doRequest(t, router, http.MethodPost, "/purchases", dto.PurchaseRequest{ConcertID: "c", SectionID: "s"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPurchaseHandler_InvalidRole(t *testing.T) {
	router := newTestRouter(&testIdentity{userID: "u", role: "superuser"})
	router.POST("/purchases", NewPurchaseHandler(&MockPurchaseService{}).Purchase)

	w := doRequest(t, router, http.MethodPost, "/purchases", dto.PurchaseRequest{ConcertID: "c", SectionID: "s"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPurchaseHandler_ListUserPurchases(t *testing.T) {
	var gotQuery *dto.ListPurchasesQuery
	svc := &MockPurchaseService{
		ListUserPurchasesFunc: func(ctx context.Context, userID string, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
			gotQuery = q
			return []*domain.Purchase{{ID: "p1", UserID: userID}}, 41, nil
		},
	}
	router := newTestRouter(customerIdentity)
	router.GET("/purchases", NewPurchaseHandler(svc).ListUserPurchases)

	w := doRequest(t, router, http.MethodGet, "/purchases?page=2&page_size=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotQuery.Page)

	var resp struct {
		Data []dto.PurchaseResponse `json:"data"`
		Meta response.PageMeta      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 41, resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	w = doRequest(t, router, http.MethodGet, "/purchases?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseHandler_ListAllPurchasesForbidden(t *testing.T) {
	svc := &MockPurchaseService{
		ListAllPurchasesFunc: func(ctx context.Context, actor domain.Actor, q *dto.ListPurchasesQuery) ([]*domain.Purchase, int, error) {
			if !actor.Role.CanViewAllPurchases() {
				return nil, 0, domain.ErrForbidden
			}
			return []*domain.Purchase{}, 0, nil
		},
	}

	router := newTestRouter(customerIdentity)
	router.GET("/admin/purchases", NewPurchaseHandler(svc).ListAllPurchases)
	w := doRequest(t, router, http.MethodGet, "/admin/purchases", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	router = newTestRouter(adminIdentity)
	router.GET("/admin/purchases", NewPurchaseHandler(svc).ListAllPurchases)
	w = doRequest(t, router, http.MethodGet, "/admin/purchases", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPricingHandler_GetPricing(t *testing.T) {
	var gotAt time.Time
	svc := &MockPricingService{
		GetConcertPricingFunc: func(ctx context.Context, concertID string, at time.Time) (*dto.ConcertPricingResponse, error) {
			if concertID != "concert-1" {
				return nil, domain.ErrConcertNotFound
			}
			gotAt = at
			return &dto.ConcertPricingResponse{CurrentMultiplier: 25, QuotedAt: at}, nil
		},
	}
	router := newTestRouter(nil)
	router.GET("/concerts/:id/pricing", NewPricingHandler(svc).GetPricing)

	w := doRequest(t, router, http.MethodGet, "/concerts/concert-1/pricing?at=2026-03-06T12:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC), gotAt.UTC())

	w = doRequest(t, router, http.MethodGet, "/concerts/concert-1/pricing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotAt.IsZero())

	w = doRequest(t, router, http.MethodGet, "/concerts/concert-1/pricing?at=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/concerts/nope/pricing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricingHandler_GetCurve(t *testing.T) {
	var gotQuery *dto.PriceCurveQuery
	svc := &MockPricingService{
		GetPriceCurveFunc: func(ctx context.Context, concertID string, q *dto.PriceCurveQuery) (*dto.PriceCurveResponse, error) {
			gotQuery = q
			return &dto.PriceCurveResponse{ConcertID: concertID, SectionID: q.SectionID}, nil
		},
	}
	router := newTestRouter(nil)
	router.GET("/concerts/:id/pricing/curve", NewPricingHandler(svc).GetCurve)

	w := doRequest(t, router, http.MethodGet, "/concerts/concert-1/pricing/curve?section_id=s2&steps=4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s2", gotQuery.SectionID)
	assert.Equal(t, 4, gotQuery.Steps)

	w = doRequest(t, router, http.MethodGet, "/concerts/concert-1/pricing/curve?steps=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConcertHandler_CreateConcert(t *testing.T) {
	var got domain.Actor
	svc := &MockCatalogService{
		CreateConcertFunc: func(ctx context.Context, actor domain.Actor, req *dto.CreateConcertRequest) (*domain.Concert, error) {
			got = actor
			if *req.MaxMultiplier > 100 {
				return nil, domain.ErrInvalidMultiplier
			}
			return &domain.Concert{ID: "concert-9", ArtistID: req.ArtistID, MaxMultiplier: *req.MaxMultiplier}, nil
		},
	}
	artist := &testIdentity{userID: "u-artist", role: "artist", artistID: "artist-1"}
	router := newTestRouter(artist)
	router.POST("/concerts", NewConcertHandler(svc).CreateConcert)

	body := map[string]interface{}{
		"artist_id":      "artist-1",
		"arena_id":       "arena-1",
		"date":           "2026-05-01T20:00:00Z",
		"launch_date":    "2026-03-01T00:00:00Z",
		"floor_date":     "2026-04-20T00:00:00Z",
		"max_multiplier": 0,
	}
	w := doRequest(t, router, http.MethodPost, "/concerts", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "artist-1", got.ArtistID)
	assert.Equal(t, domain.RoleArtist, got.Role)

	body["max_multiplier"] = 500
	w = doRequest(t, router, http.MethodPost, "/concerts", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)

	delete(body, "max_multiplier")
	w = doRequest(t, router, http.MethodPost, "/concerts", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
}

func TestConcertHandler_Reads(t *testing.T) {
	svc := &MockCatalogService{
		GetConcertFunc: func(ctx context.Context, id string) (*dto.ConcertSummary, error) {
			if id != "concert-1" {
				return nil, domain.ErrConcertNotFound
			}
			return &dto.ConcertSummary{Concert: &domain.Concert{ID: id}, ArtistName: "Aetheria"}, nil
		},
		SearchArtistsFunc: func(ctx context.Context, query string) ([]*domain.Artist, error) {
			return []*domain.Artist{{ID: "artist-1", Name: query}}, nil
		},
	}
	h := NewConcertHandler(svc)
	router := newTestRouter(nil)
	router.GET("/artists", h.SearchArtists)
	router.GET("/artists/:id", h.GetArtist)
	router.GET("/concerts", h.ListConcerts)
	router.GET("/concerts/:id", h.GetConcert)

	w := doRequest(t, router, http.MethodGet, "/concerts/concert-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"artist_name":"Aetheria"`)

	w = doRequest(t, router, http.MethodGet, "/concerts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/concerts?artist_id=artist-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = doRequest(t, router, http.MethodGet, "/artists?q=Aeth", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Aeth"`)

	w = doRequest(t, router, http.MethodGet, "/artists/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ARTIST_NOT_FOUND", decodeError(t, w).Code)
}

func TestWatcherHandler(t *testing.T) {
	svc := &MockWatcherService{
		CreateWatcherFunc: func(ctx context.Context, userID string, req *dto.CreateWatcherRequest) (*domain.Watcher, error) {
			if req.TargetPrice <= 0 {
				return nil, domain.ErrInvalidTargetPrice
			}
			return &domain.Watcher{ID: "w1", UserID: userID, TargetPrice: req.TargetPrice}, nil
		},
	}
	h := NewWatcherHandler(svc)
	router := newTestRouter(customerIdentity)
	router.POST("/watchers", h.Create)
	router.GET("/watchers", h.List)

	w := doRequest(t, router, http.MethodPost, "/watchers", map[string]interface{}{
		"concert_id": "concert-1", "section_id": "s1", "target_price": 150,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodPost, "/watchers", map[string]interface{}{
		"concert_id": "concert-1", "section_id": "s1", "target_price": -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/watchers", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := checkerFunc(func(ctx context.Context) error { return nil })
	down := checkerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	router := newTestRouter(nil)
	router.GET("/health", NewHealthHandler(nil).Health)
	router.GET("/ready", NewHealthHandler(map[string]HealthChecker{"database": ok, "redis": nil}).Ready)
	router.GET("/ready-down", NewHealthHandler(map[string]HealthChecker{"database": ok, "redis": down}).Ready)

	w := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ready ReadyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "healthy", ready.Components["database"])
	assert.Equal(t, "not configured", ready.Components["redis"])

	w = doRequest(t, router, http.MethodGet, "/ready-down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
