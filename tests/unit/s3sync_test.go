package unit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fuelroute/fuel-route-backend/internal/fueldata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestSyncDownloadsBothArtifacts(t *testing.T) {
	dataDir := t.TempDir()
	client := &fakeS3{objects: map[string]string{
		"datasets/fuel_prices.csv":    "OPIS Truckstop ID,Truckstop Name,Address,City,State,Rack ID,Retail Price\n",
		"datasets/fuel_geocoded.json": "{}",
	}}

	syncer := fueldata.NewSyncerWithClient(client, "fuel-bucket", "datasets/", dataDir)
	require.NoError(t, syncer.Sync(context.Background()))

	csv, err := os.ReadFile(filepath.Join(dataDir, "fuel_prices.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "OPIS Truckstop ID")

	_, err = os.Stat(filepath.Join(dataDir, "fuel_geocoded.json"))
	assert.NoError(t, err)
}

func TestSyncMissingGeocodeArtifactIsSkipped(t *testing.T) {
	dataDir := t.TempDir()
	client := &fakeS3{objects: map[string]string{
		"fuel_prices.csv": "header\n",
	}}

	syncer := fueldata.NewSyncerWithClient(client, "fuel-bucket", "", dataDir)
	require.NoError(t, syncer.Sync(context.Background()))

	_, err := os.Stat(filepath.Join(dataDir, "fuel_geocoded.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncMissingPriceCSVIsFatal(t *testing.T) {
	syncer := fueldata.NewSyncerWithClient(&fakeS3{objects: map[string]string{}}, "fuel-bucket", "", t.TempDir())

	err := syncer.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuel_prices.csv")
}
