//go:build !gcp

package paramsource

import (
	"context"
	"fmt"
)

func openGCS(ctx context.Context, opts Options) (Source, error) {
	return nil, fmt.Errorf("GCS parameter source is not enabled in this build (use -tags gcp)")
}
