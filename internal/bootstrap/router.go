package bootstrap

import (
	"time"

	httpapi "github.com/fuelroute/fuel-route-backend/internal/api/http"
	rphttp "github.com/fuelroute/fuel-route-backend/internal/routeplanner/http"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/middleware"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedHosts   []string
	TrustedOrigins []string
	StaticRoot     string
	Cache          *repository.CacheRepository
	Planner        *service.PlannerService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.AllowedHostsMiddleware(dep.AllowedHosts))

	if len(dep.TrustedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.TrustedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Cache)
	healthHandler.RegisterRoutes(r)

	// The proxy serves /static/ from the shared volume in production;
	// this keeps single-container deployments working too.
	if dep.StaticRoot != "" {
		r.Static("/static", dep.StaticRoot)
	}

	api := r.Group("/api")
	api.Use(middleware.RequestIDMiddleware())

	rpHandler := rphttp.New(dep.Planner)
	rpHandler.Register(api)

	return r
}
