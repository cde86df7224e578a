package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/scorer"
)

type resolveOutput struct {
	Query    string      `json:"query"`
	Resolved string      `json:"resolved,omitempty"`
	Tier     scorer.Tier `json:"tier"`
	Source   string      `json:"source,omitempty"`
	Digest   string      `json:"digest,omitempty"`
}

// runResolveCmd implements `msgfscorer resolve`.
func runResolveCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("resolve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		configPath string
		method     string
		instrument string
		enzyme     string
		protocol   string
		jsonOutput bool
	)
	cmd.StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.StringVar(&method, "m", "", "Fragmentation method (CID, ETD, HCD, PQD, UVPD, FUSION, ASWRITTEN)")
	cmd.StringVar(&instrument, "inst", "", "Instrument class (LowRes, HighRes, TOF, QExactive)")
	cmd.StringVar(&enzyme, "e", "", "Enzyme (Tryp, LysN, AspN, ...)")
	cmd.StringVar(&protocol, "protocol", "", "Protocol (Standard, Phosphorylation, iTRAQ, iTRAQPhospho, TMT)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	q, err := condition.ParseQuery(method, instrument, enzyme, protocol)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	env, code, err := setup(ctx, configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return code
	}
	defer env.close(ctx)

	res, err := env.resolver.ResolveDetailed(ctx, q)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: resolve %s: %v\n", res.Query.Name(), err)
		return 1
	}

	out := resolveOutput{Query: res.Query.Name(), Tier: res.Tier}
	if res.Model != nil {
		out.Resolved = res.Model.Name()
		out.Source = res.Model.Source
		out.Digest = res.Model.Digest
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return 1
		}
		return 0
	}

	_, _ = fmt.Fprintf(stdout, "query:    %s\n", out.Query)
	if res.Model == nil {
		_, _ = fmt.Fprintln(stdout, "resolved: none (no scoring model applies)")
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "resolved: %s\n", out.Resolved)
	_, _ = fmt.Fprintf(stdout, "tier:     %s\n", out.Tier)
	_, _ = fmt.Fprintf(stdout, "source:   %s\n", out.Source)
	_, _ = fmt.Fprintf(stdout, "digest:   %s\n", out.Digest)
	return 0
}
