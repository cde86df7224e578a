// Package scorer resolves experimental conditions to scoring parameter
// models.
//
// A Resolver normalizes the query, answers from its cache when it can, and
// otherwise walks a fixed fallback chain: the exact condition from the
// override then the built-in sources, the same condition under the standard
// protocol, the condition with its enzyme replaced by the representative of
// its cleavage terminus, and finally one of five representative conditions
// that every installation bundles.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/observability"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

// ErrMissingParameterData is returned when the fallback chain is exhausted,
// which means the representative parameter files are not installed.
var ErrMissingParameterData = errors.New("missing parameter data")

// Tier identifies the step of the fallback chain that answered a query.
type Tier int

const (
	// TierNone is reported for FUSION, which has no model.
	TierNone Tier = iota
	TierCache
	TierOverride
	TierBuiltin
	// TierStandardProtocol: a non-standard protocol query answered by the
	// exact standard-protocol condition.
	TierStandardProtocol
	TierEnzymeSubstitute
	TierRepresentative
)

var tierNames = [...]string{
	TierNone:             "none",
	TierCache:            "cache",
	TierOverride:         "override",
	TierBuiltin:          "builtin",
	TierStandardProtocol: "standard-protocol",
	TierEnzymeSubstitute: "enzyme-substitute",
	TierRepresentative:   "representative",
}

func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a tier name written by MarshalText.
func (t *Tier) UnmarshalText(text []byte) error {
	for i, name := range tierNames {
		if name == string(text) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", text)
}

// Resolution describes how a query was answered.
type Resolution struct {
	// Query is the normalized query key.
	Query condition.Key
	// Model is nil only for FUSION.
	Model *Model
	Tier  Tier
}

// Resolver owns a cache and the fallback chain in front of a Loader.
type Resolver struct {
	loader    *Loader
	cache     *Cache
	flight    singleflight.Group
	logger    *slog.Logger
	telemetry *observability.Provider
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTelemetry records spans and resolution counters on p.
func WithTelemetry(p *observability.Provider) Option {
	return func(r *Resolver) {
		r.telemetry = p
	}
}

// WithCache shares c instead of allocating a fresh cache.
func WithCache(c *Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// NewResolver creates a resolver reading through loader.
func NewResolver(loader *Loader, opts ...Option) *Resolver {
	r := &Resolver{
		loader: loader,
		cache:  NewCache(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "resolver")
	return r
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Loader returns the resolver's loader.
func (r *Resolver) Loader() *Loader { return r.loader }

// Resolve normalizes q and returns its model. FUSION yields a nil model and a
// nil error. An error wrapping ErrMissingParameterData means the installation
// lacks the representative parameter files.
func (r *Resolver) Resolve(ctx context.Context, q condition.Query) (*Model, error) {
	res, err := r.ResolveDetailed(ctx, q)
	return res.Model, err
}

// ResolveKey resolves a key built by the caller. The key is normalized first,
// so a key that already is normal resolves exactly as the equivalent query.
func (r *Resolver) ResolveKey(ctx context.Context, k condition.Key) (*Model, error) {
	return r.Resolve(ctx, condition.Query(k))
}

// ResolveDetailed is Resolve, also reporting the tier that answered.
func (r *Resolver) ResolveDetailed(ctx context.Context, q condition.Query) (Resolution, error) {
	k := condition.Normalize(q)
	if k.Method == condition.Fusion {
		return Resolution{Query: k, Tier: TierNone}, nil
	}

	ctx, finish := r.telemetry.TrackOperation(ctx, "scorer.resolve", observability.ResolveOperation(k.Name())...)
	res, err := r.resolve(ctx, k)
	if err != nil {
		finish(err)
		return Resolution{Query: k}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		observability.AttrResolved.String(res.Model.Name()),
		observability.AttrTier.String(res.Tier.String()),
	)
	finish(nil)
	r.telemetry.RecordResolution(ctx, res.Tier.String())
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, k condition.Key) (Resolution, error) {
	if m, ok := r.cache.Lookup(k); ok {
		return Resolution{Query: k, Model: m, Tier: TierCache}, nil
	}

	// The shared load runs under the context of whichever caller started it.
	// When that context ends, callers whose own context is still live start
	// a new load instead of inheriting the cancellation.
	for {
		v, err, _ := r.flight.Do(k.Name(), func() (interface{}, error) {
			if m, ok := r.cache.Lookup(k); ok {
				return Resolution{Query: k, Model: m, Tier: TierCache}, nil
			}
			return r.resolveMiss(ctx, k)
		})
		if err == nil {
			return v.(Resolution), nil
		}
		if isContextErr(err) && ctx.Err() == nil {
			r.logger.DebugContext(ctx, "shared load cancelled, retrying", "query", k.Name())
			continue
		}
		return Resolution{Query: k}, err
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Resolver) resolveMiss(ctx context.Context, k condition.Key) (Resolution, error) {
	m, err := r.loader.Load(ctx, k, paramsource.RoleOverride, paramsource.RoleBuiltin)
	if err == nil {
		tier := TierBuiltin
		if m.Role == paramsource.RoleOverride {
			tier = TierOverride
		}
		return Resolution{Query: k, Model: r.cache.Store(k, m), Tier: tier}, nil
	}
	if !errors.Is(err, paramsource.ErrNotFound) {
		return Resolution{}, err
	}

	if !k.IsStandard() {
		std := k.Standardized()
		r.logger.DebugContext(ctx, "falling back to standard protocol", "query", k.Name(), "candidate", std.Name())
		res, err := r.resolve(ctx, std)
		if err != nil {
			return Resolution{}, err
		}
		tier := res.Tier
		switch tier {
		case TierCache, TierOverride, TierBuiltin:
			tier = TierStandardProtocol
		}
		return Resolution{Query: k, Model: r.cache.Store(k, res.Model), Tier: tier}, nil
	}

	return r.fallback(ctx, k)
}

// fallback runs the enzyme-substitution and representative tiers for a
// standard-protocol key whose exact file is absent. Results are cached under
// k, never under the substituted key.
func (r *Resolver) fallback(ctx context.Context, k condition.Key) (Resolution, error) {
	tried := []condition.Key{k}

	if sub, ok := substituteEnzyme(k.Enzyme); ok && sub != k.Enzyme {
		sk := k.WithEnzyme(sub)
		r.logger.DebugContext(ctx, "substituting enzyme", "query", k.Name(), "candidate", sk.Name())
		m, err := r.loader.Load(ctx, sk, paramsource.RoleOverride, paramsource.RoleBuiltin)
		if err == nil {
			return Resolution{Query: k, Model: r.cache.Store(k, m), Tier: TierEnzymeSubstitute}, nil
		}
		if !errors.Is(err, paramsource.ErrNotFound) {
			return Resolution{}, err
		}
		tried = append(tried, sk)
	}

	rep := Representative(k)
	if !containsKey(tried, rep) {
		r.logger.DebugContext(ctx, "using representative condition", "query", k.Name(), "candidate", rep.Name())
		m, err := r.loader.Load(ctx, rep, paramsource.RoleOverride, paramsource.RoleBuiltin)
		if err == nil {
			return Resolution{Query: k, Model: r.cache.Store(k, m), Tier: TierRepresentative}, nil
		}
		if !errors.Is(err, paramsource.ErrNotFound) {
			return Resolution{}, err
		}
	}

	r.logger.ErrorContext(ctx, "no parameter data for condition", "query", k.Name(), "representative", rep.Name())
	return Resolution{}, fmt.Errorf("%w: %s (representative %s)", ErrMissingParameterData, k.Name(), rep.Name())
}

// substituteEnzyme returns the representative enzyme of e's cleavage
// terminus. Unspecific enzymes have none.
func substituteEnzyme(e condition.Enzyme) (condition.Enzyme, bool) {
	switch {
	case e.IsCTerm():
		return condition.Trypsin, true
	case e.IsNTerm():
		return condition.LysN, true
	default:
		return condition.EnzymeUnspecified, false
	}
}

// Representative returns the coarse condition k falls back to when neither
// its exact nor its enzyme-substituted parameters exist. The result always
// uses the standard protocol and is one of Representatives().
func Representative(k condition.Key) condition.Key {
	cterm := k.Enzyme.IsCTerm()
	nterm := k.Enzyme.IsNTerm()
	electron := k.Method.IsElectronBased()

	switch {
	case k.Method == condition.HCD && (k.Instrument == condition.TOF || k.Instrument == condition.HighResLTQ) && cterm:
		return condition.NewKey(condition.CID, condition.TOF, condition.Trypsin, condition.Standard)
	case electron && cterm:
		return condition.NewKey(condition.ETD, condition.LowResLTQ, condition.Trypsin, condition.Standard)
	case electron && nterm:
		return condition.NewKey(condition.ETD, condition.LowResLTQ, condition.LysN, condition.Standard)
	case !electron && nterm:
		return condition.NewKey(condition.CID, condition.LowResLTQ, condition.LysN, condition.Standard)
	default:
		return condition.NewKey(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard)
	}
}

// Representatives lists the conditions every installation must bundle.
func Representatives() []condition.Key {
	return []condition.Key{
		condition.NewKey(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard),
		condition.NewKey(condition.CID, condition.LowResLTQ, condition.LysN, condition.Standard),
		condition.NewKey(condition.ETD, condition.LowResLTQ, condition.Trypsin, condition.Standard),
		condition.NewKey(condition.ETD, condition.LowResLTQ, condition.LysN, condition.Standard),
		condition.NewKey(condition.CID, condition.TOF, condition.Trypsin, condition.Standard),
	}
}

// Preload loads every representative condition into the cache without
// falling back, so a broken installation fails at start-up rather than on
// the first unusual query.
func (r *Resolver) Preload(ctx context.Context) error {
	var missing []string
	for _, rep := range Representatives() {
		if _, ok := r.cache.Lookup(rep); ok {
			continue
		}
		m, err := r.loader.Load(ctx, rep, paramsource.RoleOverride, paramsource.RoleBuiltin)
		if err != nil {
			if !errors.Is(err, paramsource.ErrNotFound) {
				return err
			}
			missing = append(missing, rep.Name())
			continue
		}
		r.cache.Store(rep, m)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameterData, strings.Join(missing, ", "))
	}
	r.logger.InfoContext(ctx, "representative parameters preloaded", "count", len(Representatives()))
	return nil
}

func containsKey(keys []condition.Key, k condition.Key) bool {
	for _, c := range keys {
		if c == k {
			return true
		}
	}
	return false
}
