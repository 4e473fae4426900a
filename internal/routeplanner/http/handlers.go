package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/service"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	planner *service.PlannerService
}

func New(planner *service.PlannerService) *Handler {
	return &Handler{planner: planner}
}

// optimize handles POST /api/route/optimize/.
func (h *Handler) optimize(c *gin.Context) {
	var req optimizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	start := strings.TrimSpace(req.Start)
	end := strings.TrimSpace(req.End)
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both start and end locations are required."})
		return
	}

	plan, err := h.planner.PlanRoute(c.Request.Context(), start, end)
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// statusFor maps planner failures onto the API's error contract: caller
// mistakes are 400, upstream routing trouble is 503, everything else 500.
func statusFor(err error) (int, string) {
	var upstream *service.UpstreamError

	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable,
			"Routing service is not configured. Set ORS_API_KEY in your .env file. " +
				"Get a free key at https://openrouteservice.org/dev/#/signup"
	case errors.Is(err, domain.ErrLocationNotFound):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &upstream):
		return http.StatusServiceUnavailable, upstream.Error()
	case errors.Is(err, domain.ErrNoRoute):
		return http.StatusServiceUnavailable, err.Error()
	}

	return http.StatusInternalServerError, err.Error()
}
