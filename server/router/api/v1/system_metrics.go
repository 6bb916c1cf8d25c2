package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/server/internal/observability"
)

// MetricsResponse is the body of GET /api/v1/metrics.
type MetricsResponse struct {
	Answers *observability.MetricsSnapshot `json:"answers"`
	Cache   *cache.Stats                   `json:"cache,omitempty"`
	Breaker string                         `json:"breaker,omitempty"`
}

// GetMetrics returns the in-process answer metrics.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	resp := MetricsResponse{Answers: s.Metrics.Snapshot()}
	if s.CacheStats != nil {
		stats := s.CacheStats()
		resp.Cache = &stats
	}
	if s.BreakerState != nil {
		resp.Breaker = s.BreakerState()
	}
	return c.JSON(http.StatusOK, resp)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version,omitempty"`
	InventorySize      int    `json:"inventory_size"`
	InventoryUpdatedAt string `json:"inventory_updated_at,omitempty"`
	Breaker            string `json:"breaker,omitempty"`
}

// GetHealth reports liveness. The status is "degraded" when the local
// inventory is empty or the generative breaker is open.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.Profile != nil {
		resp.Version = s.Profile.Version
	}
	if s.Inventory != nil {
		resp.InventorySize = s.Inventory.Len()
		if updated := s.Inventory.UpdatedAt(); !updated.IsZero() {
			resp.InventoryUpdatedAt = updated.UTC().Format(time.RFC3339)
		}
		if resp.InventorySize == 0 {
			resp.Status = "degraded"
		}
	}
	if s.BreakerState != nil {
		resp.Breaker = s.BreakerState()
		if resp.Breaker == "open" {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}
