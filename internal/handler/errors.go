package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"github.com/prohmpiriya/decaying-tickets/pkg/middleware"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
	"go.uber.org/zap"
)

// errorCode pairs a sentinel with its API error code
type errorCode struct {
	err  error
	code string
}

var (
	conflictCodes = []errorCode{
		{domain.ErrSoldOut, "SOLD_OUT"},
		{domain.ErrSaleNotStarted, "SALE_NOT_STARTED"},
		{domain.ErrEventAlreadyStarted, "EVENT_STARTED"},
		{domain.ErrSeatCeilingExceeded, "SEAT_CEILING_EXCEEDED"},
	}
	notFoundCodes = []errorCode{
		{domain.ErrConcertNotFound, "CONCERT_NOT_FOUND"},
		{domain.ErrArtistNotFound, "ARTIST_NOT_FOUND"},
		{domain.ErrArenaNotFound, "ARENA_NOT_FOUND"},
		{domain.ErrSectionNotFound, "SECTION_NOT_FOUND"},
	}
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSoldOut):
		response.Conflict(c, "SOLD_OUT", "This section is sold out")
	case domain.IsConflictError(err):
		response.Conflict(c, codeFor(err, conflictCodes, "CONFLICT"), err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, err.Error())
	case domain.IsNotFoundError(err):
		response.Error(c, http.StatusNotFound, codeFor(err, notFoundCodes, "NOT_FOUND"), err.Error(), "")
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
	default:
		logger.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}

func codeFor(err error, codes []errorCode, fallback string) string {
	for _, ec := range codes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return fallback
}

// actorFromContext builds the caller identity set by the JWT middleware.
// It writes the error response itself and returns false when there is none.
func actorFromContext(c *gin.Context) (domain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		response.Unauthorized(c, "Authentication required")
		return domain.Actor{}, false
	}

	roleName, _ := middleware.GetRole(c)
	role, err := domain.ParseUserRole(roleName)
	if err != nil {
		response.Forbidden(c, err.Error())
		return domain.Actor{}, false
	}

	email, _ := middleware.GetEmail(c)
	artistID, _ := middleware.GetArtistID(c)
	return domain.Actor{
		UserID:   userID,
		Email:    email,
		Role:     role,
		ArtistID: artistID,
	}, true
}
