//go:build gcp

package paramsource

import "context"

func openGCS(ctx context.Context, opts Options) (Source, error) {
	return NewGCSSource(ctx, GCSConfig{Bucket: opts.Bucket, Prefix: opts.Prefix})
}
