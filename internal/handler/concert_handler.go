package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/service"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ConcertHandler handles catalog HTTP requests
type ConcertHandler struct {
	catalogService service.CatalogService
}

// NewConcertHandler creates a new ConcertHandler
func NewConcertHandler(catalogService service.CatalogService) *ConcertHandler {
	return &ConcertHandler{catalogService: catalogService}
}

// SearchArtists handles GET /artists?q=
func (h *ConcertHandler) SearchArtists(c *gin.Context) {
	artists, err := h.catalogService.SearchArtists(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.List(c, artists, len(artists))
}

// GetArtist handles GET /artists/:id
func (h *ConcertHandler) GetArtist(c *gin.Context) {
	artist, err := h.catalogService.GetArtist(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, artist)
}

// GetArena handles GET /arenas/:id
func (h *ConcertHandler) GetArena(c *gin.Context) {
	arena, err := h.catalogService.GetArena(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, arena)
}

// ListConcerts handles GET /concerts?artist_id=
func (h *ConcertHandler) ListConcerts(c *gin.Context) {
	var q dto.ListConcertsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	concerts, err := h.catalogService.ListConcerts(c.Request.Context(), &q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.List(c, concerts, len(concerts))
}

// GetConcert handles GET /concerts/:id
func (h *ConcertHandler) GetConcert(c *gin.Context) {
	concert, err := h.catalogService.GetConcert(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, concert)
}

// CreateConcert handles POST /concerts
func (h *ConcertHandler) CreateConcert(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.concert.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFromContext(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		return
	}

	var req dto.CreateConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("user_id", actor.UserID),
		attribute.String("artist_id", req.ArtistID),
	)

	concert, err := h.catalogService.CreateConcert(ctx, actor, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("concert_id", concert.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, concert)
}
