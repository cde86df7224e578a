package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/scorer"
)

type matrixEntry struct {
	Query      string      `json:"query"`
	Normalized string      `json:"normalized"`
	Resolved   string      `json:"resolved"`
	Tier       scorer.Tier `json:"tier"`
}

type matrixReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Count      int           `json:"count"`
	Entries    []matrixEntry `json:"entries"`
	CachedKeys []string      `json:"cached_keys"`
}

// matrixQueries enumerates every registered method (except FUSION and,
// unless asked, ASWRITTEN) crossed with every instrument, enzyme and protocol.
func matrixQueries(includeAsWritten bool) []condition.Query {
	var out []condition.Query
	for _, m := range condition.AllMethods() {
		if m == condition.Fusion || (m == condition.AsWritten && !includeAsWritten) {
			continue
		}
		for _, inst := range condition.AllInstruments() {
			for _, enz := range condition.AllEnzymes() {
				for _, p := range condition.AllProtocols() {
					out = append(out, condition.Query{Method: m, Instrument: inst, Enzyme: enz, Protocol: p})
				}
			}
		}
	}
	return out
}

func queryLabel(q condition.Query) string {
	return fmt.Sprintf("%s_%s_%s_%s", q.Method, q.Instrument, q.Enzyme, q.Protocol)
}

// runMatrixCmd implements `msgfscorer matrix`. Queries may be resolved
// concurrently but are always reported in enumeration order. The first
// failure aborts the run.
func runMatrixCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("matrix", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		configPath       string
		jsonOutput       bool
		includeAsWritten bool
		parallel         int
		metricsFile      string
	)
	cmd.StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.BoolVar(&jsonOutput, "json", false, "Output report as JSON")
	cmd.BoolVar(&includeAsWritten, "include-aswritten", false, "Also resolve the ASWRITTEN method")
	cmd.IntVar(&parallel, "parallel", 1, "Number of concurrent resolutions")
	cmd.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus text-format run metrics to this file")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if parallel < 1 {
		_, _ = fmt.Fprintln(stderr, "Error: -parallel must be at least 1")
		return 2
	}

	ctx := context.Background()
	env, code, err := setup(ctx, configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return code
	}
	defer env.close(ctx)

	report := matrixReport{RunID: uuid.New().String(), StartedAt: time.Now().UTC()}
	env.logger.InfoContext(ctx, "matrix run started", "run_id", report.RunID, "parallel", parallel)

	metrics := newMatrixMetrics()
	queries := matrixQueries(includeAsWritten)
	results := make([]scorer.Resolution, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, q := range queries {
		g.Go(func() error {
			res, err := env.resolver.ResolveDetailed(gctx, q)
			if err == nil && res.Model == nil {
				err = fmt.Errorf("no model")
			}
			if err != nil {
				metrics.failure()
				return fmt.Errorf("%s: %w", queryLabel(q), err)
			}
			metrics.resolved(res.Tier)
			results[i] = res
			return nil
		})
	}
	err = g.Wait()
	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	metrics.finish(time.Since(report.StartedAt), env.resolver.Cache().Len())
	if metricsFile != "" {
		if werr := metrics.writeTo(metricsFile); werr != nil {
			env.logger.WarnContext(ctx, "failed to write metrics file", "path", metricsFile, "error", werr)
		}
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for i, q := range queries {
		label := queryLabel(q)
		res := results[i]
		if !jsonOutput {
			_, _ = fmt.Fprintf(stdout, "%s -> %s\n", label, res.Model.Name())
		}
		report.Entries = append(report.Entries, matrixEntry{
			Query:      label,
			Normalized: res.Query.Name(),
			Resolved:   res.Model.Name(),
			Tier:       res.Tier,
		})
	}

	report.Count = len(report.Entries)
	for _, k := range env.resolver.Cache().Keys() {
		report.CachedKeys = append(report.CachedKeys, k.Name())
	}
	env.logger.InfoContext(ctx, "matrix run finished",
		"run_id", report.RunID,
		"count", report.Count,
		"cached_keys", env.resolver.Cache().Len(),
	)

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return 1
		}
	}
	return 0
}
