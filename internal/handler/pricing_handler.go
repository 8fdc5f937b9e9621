package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/service"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
)

// PricingHandler serves price quotes and decay curves
type PricingHandler struct {
	pricingService service.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// GetPricing handles GET /concerts/:id/pricing?at=
// at is an optional RFC 3339 instant; the current time is used when absent.
func (h *PricingHandler) GetPricing(c *gin.Context) {
	var at time.Time
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "at must be an RFC 3339 timestamp")
			return
		}
		at = parsed
	}

	quote, err := h.pricingService.GetConcertPricing(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, quote)
}

// GetCurve handles GET /concerts/:id/pricing/curve?section_id=&steps=
func (h *PricingHandler) GetCurve(c *gin.Context) {
	var q dto.PriceCurveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	curve, err := h.pricingService.GetPriceCurve(c.Request.Context(), c.Param("id"), &q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, curve)
}
