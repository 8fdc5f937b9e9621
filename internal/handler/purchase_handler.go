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

// PurchaseHandler handles ticket purchase HTTP requests
type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Purchase handles POST /purchases
// The seat is priced at the moment the reservation succeeds.
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFromContext(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("user_id", actor.UserID),
		attribute.String("concert_id", req.ConcertID),
		attribute.String("section_id", req.SectionID),
	)

	purchase, err := h.purchaseService.Purchase(ctx, actor, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("purchase_id", purchase.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.PurchaseFromDomain(purchase))
}

// ListUserPurchases handles GET /purchases
func (h *PurchaseHandler) ListUserPurchases(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var q dto.ListPurchasesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	q.Normalize()

	purchases, total, err := h.purchaseService.ListUserPurchases(c.Request.Context(), actor.UserID, &q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paginated(c, dto.PurchasesFromDomain(purchases), q.Page, q.PageSize, total)
}

// ListAllPurchases handles GET /admin/purchases
func (h *PurchaseHandler) ListAllPurchases(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var q dto.ListPurchasesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	q.Normalize()

	purchases, total, err := h.purchaseService.ListAllPurchases(c.Request.Context(), actor, &q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Paginated(c, dto.PurchasesFromDomain(purchases), q.Page, q.PageSize, total)
}
