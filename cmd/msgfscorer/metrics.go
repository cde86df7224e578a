package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/feiyue126/msgfplus/pkg/scorer"
)

const (
	metricsNamespace = "msgf"
	metricsSubsystem = "matrix"
)

// matrixMetrics collects one matrix run on a private registry so the result
// can be dropped into a node-exporter textfile directory.
type matrixMetrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	failures    prometheus.Counter
	duration    prometheus.Gauge
	cachedKeys  prometheus.Gauge
	lastRun     prometheus.Gauge
}

func newMatrixMetrics() *matrixMetrics {
	m := &matrixMetrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "resolutions_total",
			Help:      "Queries resolved during the run, by answering tier.",
		}, []string{"tier"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "failures_total",
			Help:      "Queries that could not be resolved.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Wall time of the run.",
		}),
		cachedKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cached_keys",
			Help:      "Resolution cache size at the end of the run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
	}
	m.registry.MustRegister(m.resolutions, m.failures, m.duration, m.cachedKeys, m.lastRun)
	return m
}

func (m *matrixMetrics) resolved(t scorer.Tier) {
	m.resolutions.WithLabelValues(t.String()).Inc()
}

func (m *matrixMetrics) failure() {
	m.failures.Inc()
}

func (m *matrixMetrics) finish(elapsed time.Duration, cached int) {
	m.duration.Set(elapsed.Seconds())
	m.cachedKeys.Set(float64(cached))
	m.lastRun.SetToCurrentTime()
}

func (m *matrixMetrics) writeTo(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
