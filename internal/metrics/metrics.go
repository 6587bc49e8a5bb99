// Package metrics exports the outcome of a wake cycle in the Prometheus text format.
//
// The process does not live long enough to be scraped, so every cycle rewrites a
// node-exporter textfile instead of serving /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "magtag_weather"

// Kinds exported on the failure gauge, in addition to "none".
var failureKinds = []string{"none", "config", "transport", "malformed_response", "unmapped_icon", "display", "unknown"}

// Cycle summarises one wake cycle.
type Cycle struct {
	Started     time.Time
	Duration    time.Duration
	FailureKind string // empty on success
	Sleep       time.Duration
	LastSuccess time.Time // zero when no cycle has succeeded yet
	Days        int
}

// Metrics owns a private registry so nothing else ends up in the textfile.
type Metrics struct {
	reg *prometheus.Registry

	lastRun       prometheus.Gauge
	lastSuccess   prometheus.Gauge
	cycleDuration prometheus.Gauge
	sleepSeconds  prometheus.Gauge
	forecastDays  prometheus.Gauge
	failure       *prometheus.GaugeVec
}

// New registers the cycle gauges on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last wake cycle started",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last wake cycle that refreshed the panel",
		}),
		cycleDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of the last wake cycle, refresh waits included",
		}),
		sleepSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sleep_seconds",
			Help:      "Deep sleep scheduled after the last wake cycle",
		}),
		forecastDays: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_days",
			Help:      "Daily entries in the last forecast response",
		}),
		failure: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_failure",
			Help:      "1 for the failure kind of the last wake cycle, none when it succeeded",
		}, []string{"kind"}),
	}
}

// Observe records c.
func (m *Metrics) Observe(c Cycle) {
	m.lastRun.Set(float64(c.Started.Unix()))
	m.cycleDuration.Set(c.Duration.Seconds())
	m.sleepSeconds.Set(c.Sleep.Seconds())
	m.forecastDays.Set(float64(c.Days))
	if !c.LastSuccess.IsZero() {
		m.lastSuccess.Set(float64(c.LastSuccess.Unix()))
	}

	kind := c.FailureKind
	if kind == "" {
		kind = "none"
	}
	for _, k := range failureKinds {
		m.failure.WithLabelValues(k).Set(0)
	}
	m.failure.WithLabelValues(kind).Set(1)
}

// WriteTextfile atomically replaces path with the current values. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
