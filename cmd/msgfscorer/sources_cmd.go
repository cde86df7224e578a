package main

import (
	"context"
	"flag"
	"fmt"
	"io"
)

// runSourcesCmd implements `msgfscorer sources`.
func runSourcesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sources", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var configPath string
	cmd.StringVar(&configPath, "config", "", "Path to YAML config file")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	env, code, err := setup(ctx, configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return code
	}
	defer env.close(ctx)

	for i, b := range env.resolver.Loader().Bindings() {
		_, _ = fmt.Fprintf(stdout, "%d. %-8s %s\n", i+1, b.Role, b.Source.Name())
	}
	return 0
}
