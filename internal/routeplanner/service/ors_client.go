package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
)

const (
	geocodeTimeout    = 10 * time.Second
	directionsTimeout = 30 * time.Second
)

// UpstreamError is a routing-provider failure the caller should surface as
// service-unavailable rather than a bad request.
type UpstreamError struct {
	Context string
	Status  int
	Msg     string
}

func (e *UpstreamError) Error() string {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("Invalid ORS API key. %s Get a free key at https://openrouteservice.org/dev/#/signup", e.Context)
	case http.StatusTooManyRequests:
		return "ORS rate limit exceeded. Please try again in a few minutes."
	case 0:
		return fmt.Sprintf("Could not reach routing service: %s. Check your network.", e.Msg)
	}
	return fmt.Sprintf("ORS %s (HTTP %d): %s", e.Context, e.Status, e.Msg)
}

// ORSClient talks to openrouteservice for geocoding and directions,
// memoizing both through the cache repository.
type ORSClient struct {
	baseURL string
	apiKey  string
	cache   *repository.CacheRepository
	http    *http.Client
}

func NewORSClient(baseURL, apiKey string, cache *repository.CacheRepository) *ORSClient {
	return &ORSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   cache,
		http:    &http.Client{},
	}
}

// Configured reports whether an API key is present. Routing is refused,
// not crashed, without one.
func (c *ORSClient) Configured() bool {
	return c.apiKey != ""
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a location string to a coordinate, restricted to the US.
func (c *ORSClient) Geocode(ctx context.Context, location string) (domain.GeoPoint, error) {
	cacheKey := repository.GeocodeKey(location)
	var cached domain.GeoPoint
	if ok, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("text", location)
	q.Set("boundary.country", "US")
	q.Set("size", "1")

	reqCtx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/geocode/search?"+q.Encode(), nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("build geocode request: %w", err)
	}

	var data geocodeResponse
	if err := c.do(req, "geocoding failed", &data); err != nil {
		return domain.GeoPoint{}, err
	}

	if len(data.Features) == 0 || len(data.Features[0].Geometry.Coordinates) < 2 {
		return domain.GeoPoint{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
	}

	// ORS returns [lon, lat]
	coords := data.Features[0].Geometry.Coordinates
	point := domain.GeoPoint{Lat: coords[1], Lon: coords[0]}

	// Memoization is best effort.
	_ = c.cache.SetJSON(ctx, cacheKey, point, repository.GeocodeTTL)

	return point, nil
}

type directionsResponse struct {
	Features []struct {
		BBox       []float64 `json:"bbox"`
		Properties struct {
			Summary *struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
	Error json.RawMessage `json:"error"`
}

// Directions fetches the driving route between two points. One upstream
// call per uncached start/end pair.
func (c *ORSClient) Directions(ctx context.Context, start, end domain.GeoPoint) (*domain.Route, error) {
	cacheKey := repository.RouteKey(
		fmt.Sprintf("(%v, %v)", start.Lat, start.Lon),
		fmt.Sprintf("(%v, %v)", end.Lat, end.Lon),
	)
	var cached domain.Route
	if ok, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		return &cached, nil
	}

	body, err := json.Marshal(map[string]any{
		"coordinates": [][]float64{
			{start.Lon, start.Lat}, // ORS uses [lon, lat]
			{end.Lon, end.Lat},
		},
		"units": "mi",
	})
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, directionsTimeout)
	defer cancel()

	// The /geojson variant responds with "features"; plain /directions
	// returns a different shape under "routes".
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.baseURL+"/v2/directions/driving-hgv/geojson", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var data directionsResponse
	if err := c.do(req, "routing failed", &data); err != nil {
		return nil, err
	}

	// ORS can return 200 with an error body (no route found, bad params).
	if len(data.Features) == 0 {
		msg := upstreamErrorMessage(data.Error)
		if msg == "" {
			msg = "No route returned. Check that start and end are in the USA and reachable by road."
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoRoute, msg)
	}

	feature := data.Features[0]
	if feature.Properties.Summary == nil {
		return nil, fmt.Errorf("%w: invalid response format from routing service", domain.ErrNoRoute)
	}
	if len(feature.Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: no geometry in route response", domain.ErrNoRoute)
	}

	polyline := make([]domain.GeoPoint, len(feature.Geometry.Coordinates))
	for i, lonlat := range feature.Geometry.Coordinates {
		polyline[i] = domain.GeoPoint{Lat: lonlat[1], Lon: lonlat[0]}
	}

	route := &domain.Route{
		TotalDistanceMiles: feature.Properties.Summary.Distance,
		DurationSeconds:    feature.Properties.Summary.Duration,
		Polyline:           polyline,
		BBox:               feature.BBox,
	}

	_ = c.cache.SetJSON(ctx, cacheKey, route, repository.RouteTTL)

	return route, nil
}

func (c *ORSClient) do(req *http.Request, errContext string, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Context: errContext, Msg: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Context: errContext, Status: resp.StatusCode, Msg: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return &UpstreamError{Context: errContext, Status: resp.StatusCode, Msg: truncatedBodyMessage(raw)}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return &UpstreamError{Context: errContext, Status: resp.StatusCode, Msg: "unexpected response body"}
	}
	return nil
}

// truncatedBodyMessage pulls the provider's message out of an error body,
// falling back to the first 200 bytes of the raw payload.
func truncatedBodyMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := upstreamErrorMessage(body.Error); msg != "" {
			return msg
		}
		if body.Message != "" {
			return body.Message
		}
	}

	s := string(raw)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// upstreamErrorMessage handles the two shapes ORS uses for its error
// field: a bare string or an object with a message.
func upstreamErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asObject struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.Message
	}
	return ""
}
