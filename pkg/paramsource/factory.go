package paramsource

import (
	"context"
	"fmt"

	"github.com/feiyue126/msgfplus/pkg/paramsource/bundled"
)

// Type selects the backend of the override source.
type Type string

const (
	TypeNone  Type = "none"
	TypeDir   Type = "dir"
	TypeS3    Type = "s3"
	TypeGCS   Type = "gcs"
	TypeSQL   Type = "sql"
	TypeRedis Type = "redis"
)

// Options configure Open. Only the fields relevant to Type are read.
type Options struct {
	Type Type

	// dir
	Dir string

	// s3, gcs
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string

	// s3 static credentials
	AccessKeyID     string
	SecretAccessKey string

	// sql
	Driver string
	DSN    string
	Table  string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MaxRPS caps reads per second against the source; zero disables it.
	MaxRPS   float64
	MaxBurst int
}

// Open builds the override source described by opts. TypeNone yields a nil
// source and a nil error.
func Open(ctx context.Context, opts Options) (Source, error) {
	src, err := open(ctx, opts)
	if err != nil || src == nil {
		return src, err
	}
	return Throttle(src, opts.MaxRPS, opts.MaxBurst), nil
}

func open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Type {
	case "", TypeNone:
		return nil, nil
	case TypeDir:
		if opts.Dir == "" {
			return nil, fmt.Errorf("dir source requires a directory")
		}
		return NewDirSource(opts.Dir), nil
	case TypeS3:
		return NewS3Source(ctx, S3Config{
			Bucket:          opts.Bucket,
			Region:          opts.Region,
			Endpoint:        opts.Endpoint,
			Prefix:          opts.Prefix,
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
		})
	case TypeGCS:
		return openGCS(ctx, opts)
	case TypeSQL:
		driver := opts.Driver
		if driver == "" {
			driver = "sqlite"
		}
		src, err := OpenSQLSource(driver, opts.DSN, opts.Table)
		if err != nil {
			return nil, err
		}
		if err := src.Migrate(ctx); err != nil {
			_ = src.Close()
			return nil, err
		}
		return src, nil
	case TypeRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis source requires an address")
		}
		return NewRedisSource(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported parameter source type: %s", opts.Type)
	}
}

// Builtin returns the source over the parameter bundle compiled into the
// binary.
func Builtin() *FSSource {
	return NewFSSource("builtin", bundled.FS, bundled.Dir)
}
