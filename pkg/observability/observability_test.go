package observability

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "msgfscorer", config.ServiceName)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.Equal(t, 5*time.Second, config.BatchTimeout)
	require.False(t, config.Enabled)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.False(t, p.Enabled())

	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
}

func TestNewProviderWithNilConfig(t *testing.T) {
	// Default config is disabled, so no exporter is dialled.
	p, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, p.Enabled())
}

func TestNewProviderEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Insecure = true
	cfg.OTLPEndpoint = "127.0.0.1:1"

	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, finish := p.TrackOperation(context.Background(), "scorer.resolve", ResolveOperation("CID_LowRes_Tryp")...)
	p.RecordResolution(ctx, "builtin")
	finish(nil)

	// No collector listens on the endpoint; only the shutdown path matters.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(shutdownCtx)
}

func TestNewProviderMissingCAFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.CAFile = filepath.Join(t.TempDir(), "absent.pem")

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "collector CA")
}

func TestNilProviderIsNoop(t *testing.T) {
	var p *Provider
	ctx := context.Background()

	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())

	p.RecordResolution(ctx, "cache")
	p.RecordLoad(ctx, "builtin", LoadHit)

	_, finish := p.TrackOperation(ctx, "scorer.resolve")
	finish(errors.New("boom"))

	require.NoError(t, p.Shutdown(ctx))
}

func TestTrackOperation(t *testing.T) {
	p := Disabled()

	newCtx, finish := p.TrackOperation(context.Background(), "scorer.resolve",
		attribute.String("msgf.query", "CID_LowRes_Tryp"))
	require.NotNil(t, newCtx)
	finish(nil)

	_, finish = p.TrackOperation(context.Background(), "scorer.resolve")
	finish(errors.New("test error"))
}

func TestRecordMetricsDisabled(t *testing.T) {
	p := Disabled()
	ctx := context.Background()

	p.RecordResolution(ctx, "representative", AttrQuery.String("ETD_LowRes_AspN"))
	p.RecordLoad(ctx, "dir:params", LoadMiss)
	p.RecordLoad(ctx, "dir:params", LoadError)
}

func TestStartSpan(t *testing.T) {
	newCtx, span := Disabled().StartSpan(context.Background(), "test.span")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Disabled().Shutdown(ctx))
}

func TestSamplerFor(t *testing.T) {
	require.Contains(t, samplerFor(1.0).Description(), "AlwaysOn")
	require.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	require.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestOperationAttributes(t *testing.T) {
	attrs := ResolveOperation("HCD_QExactive_Tryp_TMT")
	require.Len(t, attrs, 1)
	require.Equal(t, "msgf.query", string(attrs[0].Key))

	attrs = LoadOperation("builtin", "CID_TOF_Tryp.param")
	require.Len(t, attrs, 2)
	require.Equal(t, "msgf.source", string(attrs[0].Key))
	require.Equal(t, "CID_TOF_Tryp.param", attrs[1].Value.AsString())
}
