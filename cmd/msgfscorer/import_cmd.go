package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/feiyue126/msgfplus/pkg/paramsource"
	"github.com/feiyue126/msgfplus/pkg/scorer"
)

// runImportCmd implements `msgfscorer import`: it copies *.param files from a
// directory (or the built-in bundle) into a SQL table or Redis, so those
// backends can serve as the override source.
func runImportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("import", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		from      string
		to        string
		driver    string
		dsn       string
		table     string
		version   string
		redisAddr string
		redisDB   int
		prefix    string
	)
	cmd.StringVar(&from, "from", "", "Directory of .param files (default: built-in bundle)")
	cmd.StringVar(&to, "to", "sql", "Destination: sql or redis")
	cmd.StringVar(&driver, "driver", "sqlite", "SQL driver (sqlite, postgres, pgx)")
	cmd.StringVar(&dsn, "dsn", "", "SQL data source name")
	cmd.StringVar(&table, "table", paramsource.DefaultTable, "SQL table")
	cmd.StringVar(&version, "version", "1.0.0", "Semantic version recorded for SQL rows")
	cmd.StringVar(&redisAddr, "redis-addr", "", "Redis address")
	cmd.IntVar(&redisDB, "redis-db", 0, "Redis database")
	cmd.StringVar(&prefix, "prefix", "", "Redis key prefix")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	src := paramsource.Builtin()
	if from != "" {
		src = paramsource.NewFSSource("dir:"+from, os.DirFS(from), ".")
	}
	files, err := paramFiles(src)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	var put func(name string, data []byte) error

	switch to {
	case "sql":
		dst, err := paramsource.OpenSQLSource(driver, dsn, table)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer func() { _ = dst.Close() }()
		if err := dst.Migrate(ctx); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		put = func(name string, data []byte) error { return dst.Put(ctx, name, version, data) }
	case "redis":
		if redisAddr == "" {
			_, _ = fmt.Fprintln(stderr, "Error: --redis-addr is required")
			return 2
		}
		dst := paramsource.NewRedisSource(redisAddr, os.Getenv("MSGF_REDIS_PASSWORD"), redisDB, prefix)
		defer func() { _ = dst.Close() }()
		put = func(name string, data []byte) error { return dst.Put(ctx, name, data) }
	default:
		_, _ = fmt.Fprintf(stderr, "Error: unknown destination %q\n", to)
		return 2
	}

	for _, name := range files {
		data, err := src.Get(ctx, name)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: read %s: %v\n", name, err)
			return 1
		}
		if err := put(name, data); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "imported %s\n", name)
	}
	_, _ = fmt.Fprintf(stdout, "%d parameter files imported\n", len(files))
	return 0
}

func paramFiles(src *paramsource.FSSource) ([]string, error) {
	names, err := src.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if strings.HasSuffix(n, scorer.ParamExt) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}
