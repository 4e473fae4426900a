package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status     string    `json:"status"`
	Cache      string    `json:"cache"`
	CacheError string    `json:"cache_error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Service    string    `json:"service"`
	Version    string    `json:"version"`
}

// HealthHandler reports process liveness plus cache reachability for the
// proxy and orchestrator. The process status stays "ok" either way; only
// the cache field and the HTTP code change when Redis is unreachable.
type HealthHandler struct {
	serviceName string
	version     string
	cache       *repository.CacheRepository
}

func NewHealthHandler(serviceName, version string, cache *repository.CacheRepository) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		cache:       cache,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Cache:     "disabled",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
	}

	statusCode := http.StatusOK
	if h.cache.Enabled() {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.cache.Ping(pingCtx); err != nil {
			resp.Cache = "error"
			resp.CacheError = truncate(err.Error(), 200)
			statusCode = http.StatusServiceUnavailable
		} else {
			resp.Cache = "ok"
		}
	}

	c.JSON(statusCode, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health/", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
