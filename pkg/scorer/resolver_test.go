package scorer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/observability"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

func TestResolve_Idempotent(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
	ctx := context.Background()

	first, err := r.ResolveDetailed(ctx, q(condition.CID, condition.LowResLTQ, condition.GluC, condition.Standard))
	require.NoError(t, err)
	second, err := r.ResolveDetailed(ctx, q(condition.CID, condition.LowResLTQ, condition.GluC, condition.Standard))
	require.NoError(t, err)

	assert.Same(t, first.Model, second.Model)
	assert.Equal(t, TierCache, second.Tier)
}

func TestResolve_ExactCID(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(newCountingSource("override"), builtin)

	res, err := r.ResolveDetailed(context.Background(), q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.NoError(t, err)

	exact := condition.NewKey(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard)
	assert.Equal(t, TierBuiltin, res.Tier)
	assert.Equal(t, exact, res.Model.Key)
	assert.Equal(t, "builtin", res.Model.Source)
	assert.Equal(t, paramsource.RoleBuiltin, res.Model.Role)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, res.Model.Digest)

	cached, ok := r.Cache().Lookup(exact)
	require.True(t, ok)
	assert.Same(t, res.Model, cached)
	assert.Equal(t, 1, r.Cache().Len())
}

func TestResolve_OverrideBeatsBuiltin(t *testing.T) {
	override := newCountingSource("override", "CID_LowRes_Tryp")
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(override, builtin)

	res, err := r.ResolveDetailed(context.Background(), q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, TierOverride, res.Tier)
	assert.Equal(t, "override", res.Model.Source)
	assert.Equal(t, 0, builtin.Total())
}

func TestResolve_FusionTouchesNoSource(t *testing.T) {
	override := newCountingSource("override")
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(override, builtin)

	for _, inst := range condition.AllInstruments() {
		for _, enz := range condition.AllEnzymes() {
			for _, p := range condition.AllProtocols() {
				res, err := r.ResolveDetailed(context.Background(), q(condition.Fusion, inst, enz, p))
				require.NoError(t, err)
				assert.Nil(t, res.Model)
				assert.Equal(t, TierNone, res.Tier)
			}
		}
	}
	assert.Equal(t, 0, override.Total())
	assert.Equal(t, 0, builtin.Total())
	assert.Equal(t, 0, r.Cache().Len())
}

func TestResolve_PQDEquivalentToCID(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
	ctx := context.Background()

	for _, inst := range condition.AllInstruments() {
		for _, enz := range condition.AllEnzymes() {
			for _, p := range condition.AllProtocols() {
				pqd, err := r.Resolve(ctx, q(condition.PQD, inst, enz, p))
				require.NoError(t, err)
				cid, err := r.Resolve(ctx, q(condition.CID, inst, enz, p))
				require.NoError(t, err)
				assert.Same(t, cid, pqd, "%s %s %s", inst, enz, p)
			}
		}
	}
}

func TestResolve_HCDInstrumentUpgrade(t *testing.T) {
	builtin := newCountingSource("builtin", append(representativeNames(), "HCD_QExactive_Tryp")...)
	r := newTestResolver(newCountingSource("override"), builtin)
	ctx := context.Background()

	for _, enz := range condition.AllEnzymes() {
		for _, p := range condition.AllProtocols() {
			low, err := r.Resolve(ctx, q(condition.HCD, condition.LowResLTQ, enz, p))
			require.NoError(t, err)
			qe, err := r.Resolve(ctx, q(condition.HCD, condition.QExactive, enz, p))
			require.NoError(t, err)
			assert.Same(t, qe, low)
		}
	}

	m, err := r.Resolve(ctx, q(condition.HCD, condition.TOF, condition.Trypsin, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, "HCD_QExactive_Tryp", m.Name())
}

func TestResolve_TotalCoverageWithRepresentativesOnly(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
	ctx := context.Background()
	reps := Representatives()

	for _, m := range condition.AllMethods() {
		if m == condition.Fusion {
			continue
		}
		for _, inst := range condition.AllInstruments() {
			for _, enz := range condition.AllEnzymes() {
				for _, p := range condition.AllProtocols() {
					model, err := r.Resolve(ctx, q(m, inst, enz, p))
					require.NoError(t, err, "%s %s %s %s", m, inst, enz, p)
					require.NotNil(t, model)
					assert.Contains(t, reps, model.Key)
				}
			}
		}
	}
}

func TestResolve_ETDNTermFallsToRepresentative(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))

	res, err := r.ResolveDetailed(context.Background(), q(condition.ETD, condition.TOF, condition.AspN, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, TierRepresentative, res.Tier)
	assert.Equal(t, "ETD_LowRes_LysN", res.Model.Name())

	res, err = r.ResolveDetailed(context.Background(), q(condition.ETD, condition.LowResLTQ, condition.AspN, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, "ETD_LowRes_LysN", res.Model.Name())
}

func TestResolve_EnzymeSubstituteKeepsQueryKey(t *testing.T) {
	builtin := newCountingSource("builtin", append(representativeNames(), "UVPD_QExactive_Tryp")...)
	r := newTestResolver(newCountingSource("override"), builtin)

	res, err := r.ResolveDetailed(context.Background(), q(condition.UVPD, condition.QExactive, condition.GluC, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, TierEnzymeSubstitute, res.Tier)
	assert.Equal(t, "UVPD_QExactive_Tryp", res.Model.Name())

	_, ok := r.Cache().Lookup(condition.NewKey(condition.UVPD, condition.QExactive, condition.GluC, condition.Standard))
	assert.True(t, ok)
	_, ok = r.Cache().Lookup(condition.NewKey(condition.UVPD, condition.QExactive, condition.Trypsin, condition.Standard))
	assert.False(t, ok, "substituted key must not be cached")
}

func TestResolve_NonStandardProtocol(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(newCountingSource("override"), builtin)
	ctx := context.Background()

	tmt := q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.TMT)
	res, err := r.ResolveDetailed(ctx, tmt)
	require.NoError(t, err)
	assert.Equal(t, TierStandardProtocol, res.Tier)
	assert.Equal(t, "CID_LowRes_Tryp", res.Model.Name())
	assert.Equal(t, "CID_LowRes_Tryp_TMT", res.Query.Name())

	_, ok := r.Cache().Lookup(condition.Normalize(tmt))
	assert.True(t, ok, "cached under the original protocol")
	_, ok = r.Cache().Lookup(condition.Normalize(tmt).Standardized())
	assert.True(t, ok, "cached under the reduced key")

	reads := builtin.Total()
	again, err := r.ResolveDetailed(ctx, tmt)
	require.NoError(t, err)
	assert.Equal(t, TierCache, again.Tier)
	assert.Same(t, res.Model, again.Model)
	assert.Equal(t, reads, builtin.Total())
}

func TestResolve_NonStandardProtocolExact(t *testing.T) {
	builtin := newCountingSource("builtin", append(representativeNames(), "HCD_QExactive_Tryp_TMT")...)
	r := newTestResolver(newCountingSource("override"), builtin)

	res, err := r.ResolveDetailed(context.Background(), q(condition.HCD, condition.QExactive, condition.Trypsin, condition.TMT))
	require.NoError(t, err)
	assert.Equal(t, TierBuiltin, res.Tier)
	assert.Equal(t, "HCD_QExactive_Tryp_TMT", res.Model.Name())
}

func TestResolve_NonStandardProtocolFallsThrough(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))

	res, err := r.ResolveDetailed(context.Background(), q(condition.ETD, condition.HighResLTQ, condition.LysC, condition.ITRAQ))
	require.NoError(t, err)
	assert.Equal(t, TierRepresentative, res.Tier)
	assert.Equal(t, "ETD_LowRes_Tryp", res.Model.Name())
}

func TestResolve_UnspecificEnzymeUsesDefaultRepresentative(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(newCountingSource("override"), builtin)

	res, err := r.ResolveDetailed(context.Background(), q(condition.ETD, condition.LowResLTQ, condition.NoCleavage, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, TierRepresentative, res.Tier)
	assert.Equal(t, "CID_LowRes_Tryp", res.Model.Name())
}

func TestResolve_MissingRepresentatives(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", "CID_LowRes_LysN"))

	_, err := r.Resolve(context.Background(), q(condition.CID, condition.TOF, condition.GluC, condition.Standard))
	require.ErrorIs(t, err, ErrMissingParameterData)
	assert.Contains(t, err.Error(), "CID_TOF_GluC")
	assert.Contains(t, err.Error(), "CID_LowRes_Tryp")
	assert.Equal(t, 0, r.Cache().Len())
}

func TestResolve_ReadFailureCountsAsAbsent(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	loader := NewLoader(nil, nil,
		Binding{Role: paramsource.RoleOverride, Source: failingSource{}},
		Binding{Role: paramsource.RoleBuiltin, Source: builtin},
	)
	r := NewResolver(loader)

	res, err := r.ResolveDetailed(context.Background(), q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.NoError(t, err)
	assert.Equal(t, TierBuiltin, res.Tier)
}

func TestResolve_CancelledContext(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.Cache().Len())
}

func TestResolve_Deterministic(t *testing.T) {
	query := q(condition.UVPD, condition.HighResLTQ, condition.ArgC, condition.Phosphorylation)
	var names []string
	for i := 0; i < 5; i++ {
		r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
		res, err := r.ResolveDetailed(context.Background(), query)
		require.NoError(t, err)
		names = append(names, res.Model.Name()+"/"+res.Tier.String())
	}
	for _, n := range names[1:] {
		assert.Equal(t, names[0], n)
	}
}

func TestResolve_ConcurrentSameInstance(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(newCountingSource("override"), builtin)
	query := q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard)

	const workers = 32
	models := make([]*Model, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := r.Resolve(context.Background(), query)
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		assert.Same(t, models[0], m)
	}
	assert.Equal(t, 1, builtin.Calls("CID_LowRes_Tryp.param"))
}

func TestResolve_CancelledLeaderDoesNotFailFollowers(t *testing.T) {
	src := newBlockingSource(representativeNames()...)
	r := NewResolver(NewLoader(nil, nil, Binding{Role: paramsource.RoleBuiltin, Source: src}))
	query := q(condition.CID, condition.LowResLTQ, condition.Trypsin, condition.Standard)

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(leaderCtx, query)
		leaderErr <- err
	}()
	<-src.entered

	type result struct {
		m   *Model
		err error
	}
	follower := make(chan result, 1)
	go func() {
		m, err := r.Resolve(context.Background(), query)
		follower <- result{m, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-leaderErr, context.Canceled)
	got := <-follower
	require.NoError(t, got.err)
	require.NotNil(t, got.m)
	assert.Equal(t, "CID_LowRes_Tryp", got.m.Name())
}

func TestResolveKey_Normalizes(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", representativeNames()...))
	ctx := context.Background()

	viaQuery, err := r.Resolve(ctx, q(condition.PQD, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.NoError(t, err)
	viaKey, err := r.ResolveKey(ctx, condition.NewKey(condition.PQD, condition.LowResLTQ, condition.Trypsin, condition.Standard))
	require.NoError(t, err)
	assert.Same(t, viaQuery, viaKey)
}

func TestResolve_LegacyQuery(t *testing.T) {
	builtin := newCountingSource("builtin", append(representativeNames(), "HCD_HighRes_Tryp")...)
	r := newTestResolver(newCountingSource("override"), builtin)

	m, err := r.Resolve(context.Background(), condition.LegacyQuery(condition.HCD, condition.Trypsin))
	require.NoError(t, err)
	assert.Equal(t, "HCD_HighRes_Tryp", m.Name())
}

func TestResolve_WithTelemetryAndSharedCache(t *testing.T) {
	cache := NewCache()
	loader := NewLoader(nil, observability.Disabled(),
		Binding{Role: paramsource.RoleBuiltin, Source: newCountingSource("builtin", representativeNames()...)},
	)
	r1 := NewResolver(loader, WithCache(cache), WithTelemetry(observability.Disabled()))
	r2 := NewResolver(loader, WithCache(cache))

	m1, err := r1.Resolve(context.Background(), condition.Query{})
	require.NoError(t, err)
	m2, err := r2.Resolve(context.Background(), condition.Query{})
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Same(t, cache, r2.Cache())
}

func TestPreload(t *testing.T) {
	builtin := newCountingSource("builtin", representativeNames()...)
	r := newTestResolver(newCountingSource("override"), builtin)

	require.NoError(t, r.Preload(context.Background()))
	assert.Equal(t, len(Representatives()), r.Cache().Len())

	reads := builtin.Total()
	require.NoError(t, r.Preload(context.Background()))
	assert.Equal(t, reads, builtin.Total())
}

func TestPreload_ReportsMissing(t *testing.T) {
	r := newTestResolver(newCountingSource("override"), newCountingSource("builtin", "CID_LowRes_Tryp", "CID_LowRes_LysN", "ETD_LowRes_Tryp"))

	err := r.Preload(context.Background())
	require.ErrorIs(t, err, ErrMissingParameterData)
	assert.Contains(t, err.Error(), "ETD_LowRes_LysN")
	assert.Contains(t, err.Error(), "CID_TOF_Tryp")
}

func TestRepresentative(t *testing.T) {
	key := func(m condition.Method, i condition.Instrument, e condition.Enzyme) condition.Key {
		return condition.NewKey(m, i, e, condition.Standard)
	}
	cases := []struct {
		in   condition.Key
		want string
	}{
		{key(condition.HCD, condition.HighResLTQ, condition.Trypsin), "CID_TOF_Tryp"},
		{key(condition.HCD, condition.TOF, condition.GluC), "CID_TOF_Tryp"},
		{key(condition.HCD, condition.QExactive, condition.Trypsin), "CID_LowRes_Tryp"},
		{key(condition.HCD, condition.HighResLTQ, condition.LysN), "CID_LowRes_LysN"},
		{key(condition.ETD, condition.QExactive, condition.ArgC), "ETD_LowRes_Tryp"},
		{key(condition.ETD, condition.TOF, condition.AspN), "ETD_LowRes_LysN"},
		{key(condition.ETD, condition.LowResLTQ, condition.UnspecificCleavage), "CID_LowRes_Tryp"},
		{key(condition.CID, condition.HighResLTQ, condition.AspN), "CID_LowRes_LysN"},
		{key(condition.UVPD, condition.TOF, condition.NoCleavage), "CID_LowRes_Tryp"},
		{condition.NewKey(condition.CID, condition.TOF, condition.ALP, condition.TMT), "CID_LowRes_Tryp"},
	}
	for _, tc := range cases {
		t.Run(tc.in.Name(), func(t *testing.T) {
			assert.Equal(t, tc.want, Representative(tc.in).Name())
		})
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "representative", TierRepresentative.String())
	assert.Equal(t, "Tier(42)", Tier(42).String())
	text, err := TierStandardProtocol.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "standard-protocol", string(text))
}

func TestTier_TextRoundTrip(t *testing.T) {
	for tier := TierNone; tier <= TierRepresentative; tier++ {
		text, err := tier.MarshalText()
		require.NoError(t, err)
		var got Tier
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, tier, got)
	}

	var bad Tier
	assert.Error(t, bad.UnmarshalText([]byte("exact")))
}
