package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Garsondee/Rat-Sense/internal/game"
)

// Metrics holds the batch runner's Prometheus collectors on a private
// registry.
type Metrics struct {
	Registry *prometheus.Registry

	ticks      *prometheus.CounterVec
	pings      prometheus.Counter
	warnings   prometheus.Counter
	runs       *prometheus.CounterVec
	catchTicks prometheus.Histogram
	localize   prometheus.Histogram
	coverage   prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ratsense_ticks_total",
			Help: "Engine ticks by phase and action.",
		}, []string{"phase", "action"}),
		pings: f.NewCounter(prometheus.CounterOpts{
			Name: "ratsense_pings_total",
			Help: "Detector pings heard.",
		}),
		warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "ratsense_warnings_total",
			Help: "Ticks that raised a recoverable condition.",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ratsense_runs_total",
			Help: "Completed runs by outcome.",
		}, []string{"outcome"}),
		catchTicks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratsense_catch_tick",
			Help:    "Tick at which the target was caught.",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10),
		}),
		localize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratsense_localize_tick",
			Help:    "Tick at which localization finished.",
			Buckets: prometheus.LinearBuckets(0, 10, 12),
		}),
		coverage: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratsense_coverage_ratio",
			Help:    "Fraction of open cells visited per run.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// ObserveTick records one tick result.
func (m *Metrics) ObserveTick(res game.TickResult) {
	m.ticks.WithLabelValues(res.Phase.String(), res.Action.String()).Inc()
	if res.Pinged {
		m.pings.Inc()
	}
	if res.Warning != nil {
		m.warnings.Inc()
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(rs RunStats) {
	m.runs.WithLabelValues(rs.Outcome.String()).Inc()
	if rs.Outcome == OutcomeCaught {
		m.catchTicks.Observe(float64(rs.CaughtTick))
	}
	if rs.LocalizedTick >= 0 {
		m.localize.Observe(float64(rs.LocalizedTick))
	}
	m.coverage.Observe(rs.Coverage())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
