// Package paramsource provides the data sources scoring parameters are read
// from: a local directory, the embedded built-in bundle, object storage
// (S3, GCS), a SQL table, or Redis.
//
// Sources are addressed by file name (canonical condition name plus the
// ".param" extension). A miss is reported as ErrNotFound; callers treat a miss
// and a read failure the same way and move on to the next source.
package paramsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when a source has no file under the requested name.
var ErrNotFound = errors.New("paramsource: not found")

// Role is the priority class a source is consulted in.
type Role string

const (
	// RoleOverride marks user-supplied parameters that shadow the bundle.
	RoleOverride Role = "override"
	// RoleBuiltin marks the parameters shipped with the binary.
	RoleBuiltin Role = "builtin"
)

// Source reads raw parameter files.
type Source interface {
	// Name identifies the source in logs and diagnostics.
	Name() string
	// Get returns the content of file, or an error wrapping ErrNotFound.
	Get(ctx context.Context, file string) ([]byte, error)
}

// Close releases resources held by s when it implements io.Closer.
func Close(s Source) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func notFound(src, file string) error {
	return fmt.Errorf("%w: %s in %s", ErrNotFound, file, src)
}

// cleanFile rejects names that could escape a source root.
func cleanFile(file string) (string, error) {
	if strings.TrimSpace(file) == "" {
		return "", fmt.Errorf("empty parameter file name")
	}
	if strings.Contains(file, "..") || strings.ContainsAny(file, `/\`) {
		return "", fmt.Errorf("invalid parameter file name %q", file)
	}
	return path.Clean(file), nil
}
