package unit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/domain"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestPrewarmer(t *testing.T, handler http.HandlerFunc) (*geocode.Prewarmer, *int64) {
	t.Helper()

	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	p := geocode.NewPrewarmer(t.TempDir())
	p.BaseURL = server.URL
	p.Limiter = rate.NewLimiter(rate.Inf, 1) // no 1 req/s wait in tests
	return p, &calls
}

func TestPrewarmGeocodesMissingLocationsOnce(t *testing.T) {
	p, calls := newTestPrewarmer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		w.Write([]byte(`[{"lat":"41.13","lon":"-102.08"}]`))
	})

	stations := []domain.FuelStation{
		{City: "Big Springs", State: "NE"},
		{City: "Big Springs", State: "NE"}, // duplicate location
		{City: "Laramie", State: "WY"},
	}

	added, err := p.Prewarm(context.Background(), stations)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.EqualValues(t, 2, atomic.LoadInt64(calls), "duplicate City_State keys are requested once")

	geocoded := p.Load()
	assert.Equal(t, [2]float64{41.13, -102.08}, geocoded["Big Springs_NE"])
}

func TestPrewarmSecondRunIsFree(t *testing.T) {
	p, calls := newTestPrewarmer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"35.0","lon":"-101.0"}]`))
	})

	stations := []domain.FuelStation{{City: "Amarillo", State: "TX"}}

	added, err := p.Prewarm(context.Background(), stations)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = p.Prewarm(context.Background(), stations)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "already-geocoded locations cost nothing")
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}

func TestPrewarmFallsBackToCentroidOnEmptyResult(t *testing.T) {
	p, _ := newTestPrewarmer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	stations := []domain.FuelStation{{City: "Nowhere", State: "WY"}}

	added, err := p.Prewarm(context.Background(), stations)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	geocoded := p.Load()
	want := domain.StateCentroids["WY"]
	assert.Equal(t, [2]float64{want.Lat, want.Lon}, geocoded["Nowhere_WY"])
}

func TestPrewarmLoadMissingArtifact(t *testing.T) {
	p := geocode.NewPrewarmer(t.TempDir())
	assert.Empty(t, p.Load())
}
