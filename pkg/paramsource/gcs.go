//go:build gcp

package paramsource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSSource reads parameter files from a Google Cloud Storage bucket.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig holds configuration for GCSSource.
type GCSConfig struct {
	Bucket string
	Prefix string // Optional object prefix
}

// NewGCSSource creates a GCS-backed parameter source using application
// default credentials.
func NewGCSSource(ctx context.Context, cfg GCSConfig) (*GCSSource, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSSource{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSSource) Name() string { return "gs://" + s.bucket + "/" + s.prefix }

func (s *GCSSource) Get(ctx context.Context, file string) ([]byte, error) {
	name, err := cleanFile(file)
	if err != nil {
		return nil, err
	}

	reader, err := s.client.Bucket(s.bucket).Object(s.prefix + name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, notFound(s.Name(), name)
		}
		return nil, fmt.Errorf("gcs get failed for %s: %w", name, err)
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}

// Close closes the GCS client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}
