package main

import (
	"log"

	"github.com/fuelroute/fuel-route-backend/config"
	"github.com/fuelroute/fuel-route-backend/internal/bootstrap"
	cronjob "github.com/fuelroute/fuel-route-backend/internal/routeplanner/cron"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/service"
	"github.com/redis/go-redis/v9"
)

const serviceName = "fuel-route-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment, cfg.App.Debug)

	cache := repository.NewCacheRepository(openRedis(cfg.Cache.RedisURL))

	fuelRepo := repository.NewFuelRepository(cfg.Paths.DataDir)
	if _, err := fuelRepo.Stations(); err != nil {
		// The optimize endpoint will keep failing until the dataset shows
		// up, but the process must still boot and answer health checks.
		log.Printf("fuel dataset not loaded yet: %v", err)
	}

	ors := service.NewORSClient(cfg.Routing.ORSBase, cfg.Routing.ORSAPIKey, cache)
	planner := service.NewPlannerService(ors, service.NewOptimizer(fuelRepo), cache)

	cronjob.NewScheduler(fuelRepo).Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedHosts:   cfg.Server.AllowedHosts,
		TrustedOrigins: cfg.Server.TrustedOrigins,
		StaticRoot:     cfg.Paths.StaticRoot,
		Cache:          cache,
		Planner:        planner,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// openRedis connects to the cache service. No REDIS_URL means caching is
// disabled; a bad one is logged and treated the same way rather than
// failing the boot.
func openRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL (caching disabled): %v", err)
		return nil
	}

	return redis.NewClient(opts)
}
