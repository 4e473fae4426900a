package domain

import "errors"

// Vehicle profile used by the optimizer. The deployment serves a fixed
// truck profile: 500-mile tank, 10 miles per gallon, refuel at 80% of
// max range to keep a safety margin.
const (
	MaxRangeMiles       = 500.0
	MPG                 = 10.0
	RefuelIntervalMiles = 400.0
)

var (
	ErrLocationNotFound = errors.New("location could not be geocoded")
	ErrNoRoute          = errors.New("no route returned")
	ErrNotConfigured    = errors.New("routing service is not configured")
)

// GeoPoint is a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Route is a driving route as returned by the routing provider.
type Route struct {
	TotalDistanceMiles float64    `json:"total_distance_miles"`
	DurationSeconds    float64    `json:"duration_seconds"`
	Polyline           []GeoPoint `json:"polyline_coords"`
	BBox               []float64  `json:"bbox,omitempty"`
}

// FuelStation is one priced truck stop from the fuel dataset.
type FuelStation struct {
	OPISID      int64    `json:"opis_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	RetailPrice float64  `json:"retail_price"`
	Coord       GeoPoint `json:"coord"`

	// DistanceFromPoint is filled in by nearest-stop queries.
	DistanceFromPoint float64 `json:"distance_from_point,omitempty"`
}

// Alternative is a runner-up stop offered alongside a chosen FuelStop.
type Alternative struct {
	Name  string  `json:"name"`
	City  string  `json:"city"`
	State string  `json:"state"`
	Price float64 `json:"price"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// FuelStop is a chosen refueling point along the route.
type FuelStop struct {
	OPISID               int64         `json:"opis_id"`
	Name                 string        `json:"name"`
	Address              string        `json:"address"`
	City                 string        `json:"city"`
	State                string        `json:"state"`
	Lat                  float64       `json:"lat"`
	Lon                  float64       `json:"lon"`
	RetailPricePerGallon float64       `json:"retail_price_per_gallon"`
	MilesFromStart       float64       `json:"miles_from_start"`
	Alternatives         []Alternative `json:"alternatives"`
}

// Segment is the leg between two consecutive refuelings.
type Segment struct {
	FromMiles     float64 `json:"from_miles"`
	ToMiles       float64 `json:"to_miles"`
	SegmentMiles  float64 `json:"segment_miles"`
	GallonsNeeded float64 `json:"gallons_needed"`
	CostUSD       float64 `json:"cost_usd"`
}

// Optimization is the fuel-stop plan for one route.
type Optimization struct {
	FuelStops          []FuelStop `json:"fuel_stops"`
	TotalGallons       float64    `json:"total_gallons"`
	TotalDistanceMiles float64    `json:"total_distance_miles"`
	AvgPricePerGallon  float64    `json:"avg_price_per_gallon"`
	TotalFuelCostUSD   float64    `json:"total_fuel_cost_usd"`
	Segments           []Segment  `json:"segments"`
	VehicleRangeMiles  float64    `json:"vehicle_range_miles"`
	MPG                float64    `json:"mpg"`
}
