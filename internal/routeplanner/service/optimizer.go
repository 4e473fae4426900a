package service

import (
	"fmt"
	"math"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
)

const (
	// Search radius around each refuel point; widened when nothing is
	// found (rural stretches of the dataset are sparse).
	searchRadiusMiles   = 75.0
	fallbackRadiusMiles = 150.0
	stopsPerWaypoint    = 3
)

// Optimizer picks cost-minimizing fuel stops along a route for the fixed
// vehicle profile (500-mile range, 10 MPG, refuel every ~400 miles).
type Optimizer struct {
	fuel *repository.FuelRepository
}

func NewOptimizer(fuel *repository.FuelRepository) *Optimizer {
	return &Optimizer{fuel: fuel}
}

// Optimize divides the route into refuel intervals, picks the cheapest
// nearby stop at each, and totals the fuel cost per segment.
func (o *Optimizer) Optimize(route []domain.GeoPoint, totalDistanceMiles float64) (*domain.Optimization, error) {
	var waypoints []float64
	if totalDistanceMiles <= domain.MaxRangeMiles {
		// One tank covers the trip; a single opportunistic stop at the
		// midpoint is enough.
		waypoints = []float64{totalDistanceMiles * 0.5}
	} else {
		for miles := domain.RefuelIntervalMiles; miles < totalDistanceMiles; miles += domain.RefuelIntervalMiles {
			waypoints = append(waypoints, miles)
		}
	}

	// Empty, not nil: the response must carry [] when nothing is found.
	stops := make([]domain.FuelStop, 0, len(waypoints))
	for _, waypointMiles := range waypoints {
		point := domain.PointAtDistance(route, waypointMiles)

		nearby, err := o.fuel.NearestCheapStops(point, searchRadiusMiles, stopsPerWaypoint)
		if err != nil {
			return nil, fmt.Errorf("find stops near mile %.0f: %w", waypointMiles, err)
		}
		if len(nearby) == 0 {
			nearby, err = o.fuel.NearestCheapStops(point, fallbackRadiusMiles, stopsPerWaypoint)
			if err != nil {
				return nil, fmt.Errorf("find stops near mile %.0f: %w", waypointMiles, err)
			}
		}
		if len(nearby) == 0 {
			continue
		}

		best := nearby[0] // already cheapest-first
		stop := domain.FuelStop{
			OPISID:               best.OPISID,
			Name:                 best.Name,
			Address:              best.Address,
			City:                 best.City,
			State:                best.State,
			Lat:                  best.Coord.Lat,
			Lon:                  best.Coord.Lon,
			RetailPricePerGallon: round3(best.RetailPrice),
			MilesFromStart:       round1(waypointMiles),
			Alternatives:         make([]domain.Alternative, 0, len(nearby)-1),
		}
		for _, alt := range nearby[1:] {
			stop.Alternatives = append(stop.Alternatives, domain.Alternative{
				Name:  alt.Name,
				City:  alt.City,
				State: alt.State,
				Price: round3(alt.RetailPrice),
				Lat:   alt.Coord.Lat,
				Lon:   alt.Coord.Lon,
			})
		}
		stops = append(stops, stop)
	}

	totalGallons := totalDistanceMiles / domain.MPG

	var avgPrice float64
	if len(stops) > 0 {
		for _, s := range stops {
			avgPrice += s.RetailPricePerGallon
		}
		avgPrice /= float64(len(stops))
	} else {
		// No stops found anywhere near the route: estimate with the
		// dataset-wide average.
		var err error
		avgPrice, err = o.fuel.AveragePrice()
		if err != nil {
			return nil, fmt.Errorf("dataset average price: %w", err)
		}
	}

	segments := buildSegments(stops, totalDistanceMiles)

	return &domain.Optimization{
		FuelStops:          stops,
		TotalGallons:       round2(totalGallons),
		TotalDistanceMiles: round1(totalDistanceMiles),
		AvgPricePerGallon:  round3(avgPrice),
		TotalFuelCostUSD:   round2(totalGallons * avgPrice),
		Segments:           segments,
		VehicleRangeMiles:  domain.MaxRangeMiles,
		MPG:                domain.MPG,
	}, nil
}

// buildSegments prices each leg between consecutive stops at the price of
// the stop that ends it, plus the final leg to the destination at the last
// stop's price.
func buildSegments(stops []domain.FuelStop, totalDistanceMiles float64) []domain.Segment {
	if len(stops) == 0 {
		return []domain.Segment{}
	}

	segments := make([]domain.Segment, 0, len(stops)+1)
	prevMiles := 0.0
	for _, stop := range stops {
		segmentMiles := stop.MilesFromStart - prevMiles
		gallons := segmentMiles / domain.MPG
		segments = append(segments, domain.Segment{
			FromMiles:     prevMiles,
			ToMiles:       stop.MilesFromStart,
			SegmentMiles:  round1(segmentMiles),
			GallonsNeeded: round2(gallons),
			CostUSD:       round2(gallons * stop.RetailPricePerGallon),
		})
		prevMiles = stop.MilesFromStart
	}

	lastMiles := totalDistanceMiles - prevMiles
	lastGallons := lastMiles / domain.MPG
	lastPrice := stops[len(stops)-1].RetailPricePerGallon
	segments = append(segments, domain.Segment{
		FromMiles:     prevMiles,
		ToMiles:       round1(totalDistanceMiles),
		SegmentMiles:  round1(lastMiles),
		GallonsNeeded: round2(lastGallons),
		CostUSD:       round2(lastGallons * lastPrice),
	})

	return segments
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
