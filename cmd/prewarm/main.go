// Prewarm geocodes all unique fuel stop locations (City+State) via
// Nominatim and saves them to data/fuel_geocoded.json so the API never
// geocodes stations on user requests. Run once, or after the fuel dataset
// changes; only missing locations are requested and the Nominatim 1 req/s
// policy is respected, so a full first run takes a while.
package main

import (
	"context"
	"log"
	"os"

	"github.com/fuelroute/fuel-route-backend/config"
	"github.com/fuelroute/fuel-route-backend/internal/fueldata"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/geocode"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	// Optional: pull the dataset from S3 first when a bucket is set.
	if bucket := os.Getenv("FUEL_DATA_S3_BUCKET"); bucket != "" {
		syncer, err := fueldata.NewSyncer(ctx,
			bucket,
			os.Getenv("FUEL_DATA_S3_PREFIX"),
			cfg.Paths.DataDir,
			os.Getenv("AWS_REGION"),
		)
		if err != nil {
			log.Fatalf("s3 sync: %v", err)
		}
		if err := syncer.Sync(ctx); err != nil {
			log.Fatalf("s3 sync: %v", err)
		}
	}

	log.Println("Loading fuel data...")
	fuelRepo := repository.NewFuelRepository(cfg.Paths.DataDir)
	stations, err := fuelRepo.Stations()
	if err != nil {
		log.Fatalf("load fuel data: %v", err)
	}

	log.Printf("Geocoding unique City+State for %d fuel stops (only missing locations are requested)...", len(stations))
	prewarmer := geocode.NewPrewarmer(cfg.Paths.DataDir)
	added, err := prewarmer.Prewarm(ctx, stations)
	if err != nil {
		log.Fatalf("prewarm: %v", err)
	}

	log.Printf("Done! %d new locations geocoded, artifact saved to %s", added, prewarmer.ArtifactPath())
}
