package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/feiyue126/msgfplus/pkg/config"
	"github.com/feiyue126/msgfplus/pkg/observability"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
	"github.com/feiyue126/msgfplus/pkg/scorer"
)

// runtimeEnv is what every command needs: configuration, a logger, and a
// resolver wired to the configured sources.
type runtimeEnv struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *observability.Provider
	resolver  *scorer.Resolver
	override  paramsource.Source
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	lvl, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
}

// setup builds the runtime. A configuration problem is reported with exit
// code 2, anything else with 1.
func setup(ctx context.Context, configPath string, stderr io.Writer) (*runtimeEnv, int, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, 2, fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg, stderr)
	slog.SetDefault(logger)

	telemetry, err := observability.New(ctx, cfg.Telemetry())
	if err != nil {
		return nil, 1, fmt.Errorf("observability: %w", err)
	}

	override, err := paramsource.Open(ctx, cfg.SourceOptions())
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, 2, fmt.Errorf("override source: %w", err)
	}

	var bindings []scorer.Binding
	if override != nil {
		bindings = append(bindings, scorer.Binding{Role: paramsource.RoleOverride, Source: override})
	}
	bindings = append(bindings, scorer.Binding{Role: paramsource.RoleBuiltin, Source: paramsource.Builtin()})

	loader := scorer.NewLoader(logger, telemetry, bindings...)
	env := &runtimeEnv{
		cfg:       cfg,
		logger:    logger,
		telemetry: telemetry,
		resolver:  scorer.NewResolver(loader, scorer.WithLogger(logger), scorer.WithTelemetry(telemetry)),
		override:  override,
	}

	if cfg.Preload {
		if err := env.resolver.Preload(ctx); err != nil {
			env.close(ctx)
			return nil, 1, err
		}
	}
	return env, 0, nil
}

func (e *runtimeEnv) close(ctx context.Context) {
	if e.override != nil {
		if err := paramsource.Close(e.override); err != nil {
			e.logger.WarnContext(ctx, "failed to close override source", "error", err)
		}
	}
	_ = e.telemetry.Shutdown(ctx)
}
