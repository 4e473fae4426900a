package repository

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
)

const (
	fuelPricesFile   = "fuel_prices.csv"
	geocodedFile     = "fuel_geocoded.json"
	fuelPricesHeader = "OPIS Truckstop ID,Truckstop Name,Address,City,State,Rack ID,Retail Price"
)

// FuelRepository loads the priced truck-stop dataset from the data
// directory and answers nearest-cheap-stop queries. The dataset is read
// once and kept in memory; Reload swaps it for the nightly refresh.
type FuelRepository struct {
	dataDir string

	mu       sync.RWMutex
	stations []domain.FuelStation
	loaded   bool
}

func NewFuelRepository(dataDir string) *FuelRepository {
	return &FuelRepository{dataDir: dataDir}
}

// Stations returns the deduplicated station list, loading it on first use.
func (r *FuelRepository) Stations() ([]domain.FuelStation, error) {
	r.mu.RLock()
	if r.loaded {
		defer r.mu.RUnlock()
		return r.stations, nil
	}
	r.mu.RUnlock()

	return r.Reload()
}

// Reload re-reads the CSV and geocoding artifact from disk.
func (r *FuelRepository) Reload() ([]domain.FuelStation, error) {
	stations, err := r.load()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.stations = stations
	r.loaded = true
	r.mu.Unlock()

	return stations, nil
}

func (r *FuelRepository) load() ([]domain.FuelStation, error) {
	path := filepath.Join(r.dataDir, fuelPricesFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fuel dataset: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read fuel dataset header: %w", err)
	}
	idx, err := mapHeaderIndices(header, []string{
		"OPIS Truckstop ID", "Truckstop Name", "Address", "City", "State", "Retail Price",
	})
	if err != nil {
		return nil, err
	}

	// FieldsPerRecord is relaxed above, so truncated rows reach us; they
	// are skipped like rows with an unparseable OPIS ID or price.
	minFields := 0
	for _, i := range idx {
		if i+1 > minFields {
			minFields = i + 1
		}
	}

	geocoded := r.loadGeocoded()

	// For duplicate OPIS IDs keep the cheapest price.
	cheapest := make(map[int64]domain.FuelStation)
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read fuel dataset row: %w", err)
		}

		if len(rec) < minFields {
			continue
		}

		opisID, err := strconv.ParseInt(strings.TrimSpace(rec[idx["OPIS Truckstop ID"]]), 10, 64)
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["Retail Price"]]), 64)
		if err != nil {
			continue
		}

		city := strings.TrimSpace(rec[idx["City"]])
		state := strings.TrimSpace(rec[idx["State"]])

		st := domain.FuelStation{
			OPISID:      opisID,
			Name:        strings.TrimSpace(rec[idx["Truckstop Name"]]),
			Address:     strings.TrimSpace(rec[idx["Address"]]),
			City:        city,
			State:       state,
			RetailPrice: price,
			Coord:       coordFor(geocoded, city, state),
		}

		if prev, ok := cheapest[opisID]; !ok || st.RetailPrice < prev.RetailPrice {
			cheapest[opisID] = st
		}
	}

	stations := make([]domain.FuelStation, 0, len(cheapest))
	for _, st := range cheapest {
		stations = append(stations, st)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].OPISID < stations[j].OPISID })

	log.Printf("fuel dataset loaded: %d unique stations from %s", len(stations), path)
	return stations, nil
}

// loadGeocoded reads the persisted City_State -> [lat, lon] artifact. The
// file is optional pre-populated state; a missing or unreadable file means
// centroid fallback, never an error.
func (r *FuelRepository) loadGeocoded() map[string][2]float64 {
	path := filepath.Join(r.dataDir, geocodedFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string][2]float64{}
	}

	var geocoded map[string][2]float64
	if err := json.Unmarshal(data, &geocoded); err != nil {
		log.Printf("ignoring malformed geocoding artifact %s: %v", path, err)
		return map[string][2]float64{}
	}
	return geocoded
}

func coordFor(geocoded map[string][2]float64, city, state string) domain.GeoPoint {
	if ll, ok := geocoded[city+"_"+state]; ok {
		return domain.GeoPoint{Lat: ll[0], Lon: ll[1]}
	}
	return domain.CentroidFor(state)
}

// NearestCheapStops returns up to topN stations within radiusMiles of the
// point, cheapest first (ties broken by distance).
func (r *FuelRepository) NearestCheapStops(point domain.GeoPoint, radiusMiles float64, topN int) ([]domain.FuelStation, error) {
	stations, err := r.Stations()
	if err != nil {
		return nil, err
	}

	var nearby []domain.FuelStation
	for _, st := range stations {
		d := domain.Haversine(point, st.Coord)
		if d <= radiusMiles {
			st.DistanceFromPoint = d
			nearby = append(nearby, st)
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].RetailPrice != nearby[j].RetailPrice {
			return nearby[i].RetailPrice < nearby[j].RetailPrice
		}
		return nearby[i].DistanceFromPoint < nearby[j].DistanceFromPoint
	})

	if len(nearby) > topN {
		nearby = nearby[:topN]
	}
	return nearby, nil
}

// AveragePrice is the mean retail price across the whole dataset, used when
// no stops could be found near a route.
func (r *FuelRepository) AveragePrice() (float64, error) {
	stations, err := r.Stations()
	if err != nil {
		return 0, err
	}
	if len(stations) == 0 {
		return 0, nil
	}

	sum := 0.0
	for _, st := range stations {
		sum += st.RetailPrice
	}
	return sum / float64(len(stations)), nil
}

func mapHeaderIndices(header, wanted []string) (map[string]int, error) {
	idx := make(map[string]int, len(wanted))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, w := range wanted {
		if _, ok := idx[w]; !ok {
			return nil, fmt.Errorf("fuel dataset missing column %q (expected header like %q)", w, fuelPricesHeader)
		}
	}
	return idx, nil
}
