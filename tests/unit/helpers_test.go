package unit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stationRow struct {
	OPISID int64
	Name   string
	City   string
	State  string
	Price  float64
}

// writeFuelDataset lays out a data directory the way a deployment volume
// looks: the price CSV plus an optional geocoding artifact.
func writeFuelDataset(t *testing.T, rows []stationRow, geocoded map[string][2]float64) string {
	t.Helper()

	dataDir := t.TempDir()

	var b strings.Builder
	b.WriteString("OPIS Truckstop ID,Truckstop Name,Address,City,State,Rack ID,Retail Price\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%d,%s,I-80 EXIT 1,%s,%s,1,%.3f\n", r.OPISID, r.Name, r.City, r.State, r.Price)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "fuel_prices.csv"), []byte(b.String()), 0o644))

	if geocoded != nil {
		data, err := json.Marshal(geocoded)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, "fuel_geocoded.json"), data, 0o644))
	}

	return dataDir
}
