package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/decaying-tickets/internal/dto"
	"github.com/prohmpiriya/decaying-tickets/internal/service"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
)

// WatcherHandler manages price alerts
type WatcherHandler struct {
	watcherService service.WatcherService
}

// NewWatcherHandler creates a new WatcherHandler
func NewWatcherHandler(watcherService service.WatcherService) *WatcherHandler {
	return &WatcherHandler{watcherService: watcherService}
}

// Create handles POST /watchers
func (h *WatcherHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateWatcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}

	watcher, err := h.watcherService.CreateWatcher(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, watcher)
}

// List handles GET /watchers
func (h *WatcherHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	watchers, err := h.watcherService.ListWatchers(c.Request.Context(), actor.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.List(c, watchers, len(watchers))
}
