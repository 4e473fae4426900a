// Package geocode pre-resolves fuel-stop locations through Nominatim and
// persists them to the geocoding artifact the API reads at runtime. It is
// only ever run from the prewarm worker; the request path never calls an
// external geocoder for station coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"golang.org/x/time/rate"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent    = "FuelRouteOptimizer/1.0"
	artifactName = "fuel_geocoded.json"
)

// Prewarmer geocodes City_State keys missing from the artifact. The rate
// limiter enforces Nominatim's 1 request/second usage policy, so a full
// first run over a fresh dataset takes on the order of minutes.
type Prewarmer struct {
	DataDir string
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

func NewPrewarmer(dataDir string) *Prewarmer {
	return &Prewarmer{
		DataDir: dataDir,
		BaseURL: nominatimURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Limiter: rate.NewLimiter(1, 1),
	}
}

// ArtifactPath is where the persisted City_State -> [lat, lon] map lives.
func (p *Prewarmer) ArtifactPath() string {
	return filepath.Join(p.DataDir, artifactName)
}

// Load reads the existing artifact, returning an empty map when the file
// is missing or unreadable.
func (p *Prewarmer) Load() map[string][2]float64 {
	data, err := os.ReadFile(p.ArtifactPath())
	if err != nil {
		return map[string][2]float64{}
	}

	var geocoded map[string][2]float64
	if err := json.Unmarshal(data, &geocoded); err != nil {
		return map[string][2]float64{}
	}
	return geocoded
}

// Prewarm geocodes every station location not yet in the artifact and
// persists the merged result. Already-known keys cost nothing. Returns
// the number of newly geocoded locations.
func (p *Prewarmer) Prewarm(ctx context.Context, stations []domain.FuelStation) (int, error) {
	geocoded := p.Load()

	// Deduplicate missing keys while preserving dataset order.
	seen := make(map[string]bool)
	var missing []string
	for _, st := range stations {
		key := st.City + "_" + st.State
		if _, ok := geocoded[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return 0, nil
	}
	log.Printf("prewarm: geocoding %d missing locations", len(missing))

	for _, key := range missing {
		if err := p.Limiter.Wait(ctx); err != nil {
			return 0, err
		}

		city, state := splitKey(key)
		point, err := p.lookup(ctx, city, state)
		if err != nil {
			// Centroid fallback keeps the artifact complete even when
			// Nominatim has no answer for a location.
			log.Printf("prewarm: %s: %v (using state centroid)", key, err)
			point = domain.CentroidFor(state)
		}
		geocoded[key] = [2]float64{point.Lat, point.Lon}
	}

	if err := p.persist(geocoded); err != nil {
		return 0, err
	}
	return len(missing), nil
}

func splitKey(key string) (city, state string) {
	if i := strings.LastIndex(key, "_"); i != -1 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

func (p *Prewarmer) lookup(ctx context.Context, city, state string) (domain.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s, %s, USA", city, state))
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	defer resp.Body.Close()

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.GeoPoint{}, err
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("no results")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("bad longitude %q", results[0].Lon)
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// persist writes the artifact atomically so a crashed prewarm never
// leaves a truncated file for the API to trip over.
func (p *Prewarmer) persist(geocoded map[string][2]float64) error {
	if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.Marshal(geocoded)
	if err != nil {
		return fmt.Errorf("marshal geocoding artifact: %w", err)
	}

	tmp, err := os.CreateTemp(p.DataDir, artifactName+".*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), p.ArtifactPath())
}
