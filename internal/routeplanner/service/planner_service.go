package service

import (
	"context"
	"fmt"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	polyline "github.com/twpayne/go-polyline"
)

// Route waypoints are sampled down so map rendering payloads stay small.
const maxWaypoints = 200

type Endpoint struct {
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type RouteSummary struct {
	Start                  Endpoint          `json:"start"`
	End                    Endpoint          `json:"end"`
	TotalDistanceMiles     float64           `json:"total_distance_miles"`
	EstimatedDurationHours float64           `json:"estimated_duration_hours"`
	Polyline               string            `json:"polyline"`
	Waypoints              []domain.GeoPoint `json:"waypoints"`
}

type OptimizationSummary struct {
	TotalFuelStops       int     `json:"total_fuel_stops"`
	TotalDistanceMiles   float64 `json:"total_distance_miles"`
	TotalGallonsNeeded   float64 `json:"total_gallons_needed"`
	AveragePricePerGal   float64 `json:"average_price_per_gallon"`
	TotalFuelCostUSD     float64 `json:"total_fuel_cost_usd"`
	VehicleMPG           float64 `json:"vehicle_mpg"`
	VehicleMaxRangeMiles float64 `json:"vehicle_max_range_miles"`
}

type FuelOptimization struct {
	FuelStops []domain.FuelStop   `json:"fuel_stops"`
	Segments  []domain.Segment    `json:"segments"`
	Summary   OptimizationSummary `json:"summary"`
}

// Plan is the full optimize response, cached as a unit for repeat queries.
type Plan struct {
	Route            RouteSummary     `json:"route"`
	FuelOptimization FuelOptimization `json:"fuel_optimization"`
}

// PlannerService wires geocoding, routing and fuel-stop optimization into
// the single plan operation the API exposes.
type PlannerService struct {
	ors       *ORSClient
	optimizer *Optimizer
	cache     *repository.CacheRepository
}

func NewPlannerService(ors *ORSClient, optimizer *Optimizer, cache *repository.CacheRepository) *PlannerService {
	return &PlannerService{ors: ors, optimizer: optimizer, cache: cache}
}

// PlanRoute geocodes both endpoints, fetches the driving route and picks
// fuel stops. The assembled response is cached for repeat queries.
func (s *PlannerService) PlanRoute(ctx context.Context, start, end string) (*Plan, error) {
	if !s.ors.Configured() {
		return nil, domain.ErrNotConfigured
	}

	cacheKey := repository.PlanKey(start, end)
	var cached Plan
	if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return &cached, nil
	}

	startCoord, err := s.ors.Geocode(ctx, start)
	if err != nil {
		return nil, err
	}
	endCoord, err := s.ors.Geocode(ctx, end)
	if err != nil {
		return nil, err
	}

	route, err := s.ors.Directions(ctx, startCoord, endCoord)
	if err != nil {
		return nil, err
	}

	optimization, err := s.optimizer.Optimize(route.Polyline, route.TotalDistanceMiles)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	plan := &Plan{
		Route: RouteSummary{
			Start:                  Endpoint{Location: start, Lat: startCoord.Lat, Lon: startCoord.Lon},
			End:                    Endpoint{Location: end, Lat: endCoord.Lat, Lon: endCoord.Lon},
			TotalDistanceMiles:     optimization.TotalDistanceMiles,
			EstimatedDurationHours: round2(route.DurationSeconds / 3600),
			Polyline:               encodePolyline(route.Polyline),
			Waypoints:              sampleWaypoints(route.Polyline, maxWaypoints),
		},
		FuelOptimization: FuelOptimization{
			FuelStops: optimization.FuelStops,
			Segments:  optimization.Segments,
			Summary: OptimizationSummary{
				TotalFuelStops:       len(optimization.FuelStops),
				TotalDistanceMiles:   optimization.TotalDistanceMiles,
				TotalGallonsNeeded:   optimization.TotalGallons,
				AveragePricePerGal:   optimization.AvgPricePerGallon,
				TotalFuelCostUSD:     optimization.TotalFuelCostUSD,
				VehicleMPG:           optimization.MPG,
				VehicleMaxRangeMiles: optimization.VehicleRangeMiles,
			},
		},
	}

	_ = s.cache.SetJSON(ctx, cacheKey, plan, repository.PlanTTL)

	return plan, nil
}

// encodePolyline compresses coordinates to the Google polyline format for
// compact transmission.
func encodePolyline(coords []domain.GeoPoint) string {
	pairs := make([][]float64, len(coords))
	for i, c := range coords {
		pairs[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(pairs))
}

// sampleWaypoints thins the route geometry to at most maxPoints entries.
func sampleWaypoints(coords []domain.GeoPoint, maxPoints int) []domain.GeoPoint {
	if len(coords) <= maxPoints {
		return coords
	}

	step := len(coords) / maxPoints
	sampled := make([]domain.GeoPoint, 0, maxPoints+1)
	for i := 0; i < len(coords); i += step {
		sampled = append(sampled, coords[i])
	}
	return sampled
}
