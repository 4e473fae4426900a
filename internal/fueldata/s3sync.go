// Package fueldata syncs the fuel dataset artifacts from object storage
// into the local data directory, for deployments that distribute
// fuel_prices.csv (and optionally a pre-built geocoding artifact) through
// an S3 bucket instead of baking them into the image.
package fueldata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var artifacts = []string{"fuel_prices.csv", "fuel_geocoded.json"}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Syncer downloads dataset artifacts from a bucket into DataDir.
type Syncer struct {
	Bucket  string
	Prefix  string
	DataDir string

	client objectGetter
}

// NewSyncer builds a Syncer from the default AWS config chain.
func NewSyncer(ctx context.Context, bucket, prefix, dataDir, region string) (*Syncer, error) {
	opts := []func(*awscfg.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Syncer{
		Bucket:  bucket,
		Prefix:  prefix,
		DataDir: dataDir,
		client:  s3.NewFromConfig(cfg),
	}, nil
}

// NewSyncerWithClient is used by tests to substitute the S3 client.
func NewSyncerWithClient(client objectGetter, bucket, prefix, dataDir string) *Syncer {
	return &Syncer{Bucket: bucket, Prefix: prefix, DataDir: dataDir, client: client}
}

// Sync fetches the known artifacts. The price CSV is required; the
// geocoding artifact is optional pre-populated state and its absence in
// the bucket is not an error.
func (s *Syncer) Sync(ctx context.Context) error {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	for i, name := range artifacts {
		key := s.Prefix + name
		err := s.download(ctx, key, filepath.Join(s.DataDir, name))
		if err == nil {
			log.Printf("fueldata: synced s3://%s/%s", s.Bucket, key)
			continue
		}

		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) && i > 0 {
			log.Printf("fueldata: s3://%s/%s not present, skipping", s.Bucket, key)
			continue
		}
		return fmt.Errorf("sync %s: %w", name, err)
	}

	return nil
}

func (s *Syncer) download(ctx context.Context, key, dest string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp(s.DataDir, filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
