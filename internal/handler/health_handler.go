package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthChecker is a backend the service depends on
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

const readyTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	names      []string
	components map[string]HealthChecker
}

// NewHealthHandler takes backends by name. A nil checker is a backend
// the current mode does not use.
func NewHealthHandler(components map[string]HealthChecker) *HealthHandler {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return &HealthHandler{names: names, components: components}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health reports that the process is up
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready probes every configured backend in parallel; one failure makes
// the instance not ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		statuses = make(map[string]string, len(h.names))
		ready    = true
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range h.names {
		checker := h.components[name]
		if checker == nil {
			mu.Lock()
			statuses[name] = "not configured"
			mu.Unlock()
			continue
		}
		name := name
		g.Go(func() error {
			status := "healthy"
			if err := checker.HealthCheck(gctx); err != nil {
				status = "unhealthy: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			statuses[name] = status
			if status != "healthy" {
				ready = false
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadyResponse{
		Status:     "ready",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: statuses,
	}
	if !ready {
		resp.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
