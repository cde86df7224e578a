package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/observability"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

// ParamExt is appended to a canonical name to form the parameter file name.
const ParamExt = ".param"

// Binding attaches a priority role to a source.
type Binding struct {
	Role   paramsource.Role
	Source paramsource.Source
}

// Loader reads parameter files from an ordered list of sources.
type Loader struct {
	bindings  []Binding
	logger    *slog.Logger
	telemetry *observability.Provider
}

// NewLoader creates a loader over bindings, consulted in the given order.
// Bindings with a nil source are skipped. logger and telemetry may be nil.
func NewLoader(logger *slog.Logger, telemetry *observability.Provider, bindings ...Binding) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	kept := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if b.Source != nil {
			kept = append(kept, b)
		}
	}
	return &Loader{
		bindings:  kept,
		logger:    logger.With("component", "loader"),
		telemetry: telemetry,
	}
}

// Bindings returns the configured sources in priority order.
func (l *Loader) Bindings() []Binding {
	out := make([]Binding, len(l.bindings))
	copy(out, l.bindings)
	return out
}

// Load reads the parameter file for key. With no roles every source is tried
// in order; otherwise the sources of each role are tried, role by role.
//
// A miss and a read failure both count as absent. Load returns an error
// wrapping paramsource.ErrNotFound when no source produced the file, and the
// context error when ctx is done.
func (l *Loader) Load(ctx context.Context, key condition.Key, roles ...paramsource.Role) (*Model, error) {
	file := key.Name() + ParamExt

	try := func(b Binding) (*Model, error) {
		src := b.Source.Name()
		readCtx, finish := l.telemetry.TrackOperation(ctx, "paramsource.get", observability.LoadOperation(src, file)...)
		data, err := b.Source.Get(readCtx, file)
		if err != nil && !errors.Is(err, paramsource.ErrNotFound) {
			finish(err)
		} else {
			finish(nil)
		}
		if err == nil {
			l.telemetry.RecordLoad(ctx, src, observability.LoadHit)
			l.logger.InfoContext(ctx, "loading param file", "name", file, "source", src, "role", b.Role)
			return newModel(key, src, b.Role, data), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, paramsource.ErrNotFound) {
			l.telemetry.RecordLoad(ctx, src, observability.LoadMiss)
			l.logger.DebugContext(ctx, "param file not in source", "name", file, "source", src)
		} else {
			l.telemetry.RecordLoad(ctx, src, observability.LoadError)
			l.logger.WarnContext(ctx, "param file read failed", "name", file, "source", src, "error", err)
		}
		return nil, nil
	}

	if len(roles) == 0 {
		for _, b := range l.bindings {
			if m, err := try(b); m != nil || err != nil {
				return m, err
			}
		}
	} else {
		for _, role := range roles {
			for _, b := range l.bindings {
				if b.Role != role {
					continue
				}
				if m, err := try(b); m != nil || err != nil {
					return m, err
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", paramsource.ErrNotFound, file)
}
