package boon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// engineMetrics holds the Prometheus collectors an Engine reports. Each
// Engine instance registers into its own registry so multiple engines
// (e.g. in tests) never collide on global metric registration.
type engineMetrics struct {
	registry     *prometheus.Registry
	tickDuration prometheus.Histogram
	tickPasses   prometheus.Histogram
	dirtySlots   prometheus.Gauge
	nonQuiescent prometheus.Counter
}

func newEngineMetrics() *engineMetrics {
	reg := prometheus.NewRegistry()
	m := &engineMetrics{
		registry: reg,
		tickDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "boon_tick_duration_seconds",
			Help: "Wall-clock time spent in Engine.Tick.",
		}),
		tickPasses: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "boon_tick_passes",
			Help:    "Number of stabilization passes executed per tick.",
			Buckets: prometheus.LinearBuckets(0, 2, 12),
		}),
		dirtySlots: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "boon_dirty_slots",
			Help: "Size of the dirty set at the start of the most recent tick.",
		}),
		nonQuiescent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "boon_nonquiescent_ticks_total",
			Help: "Ticks that hit the stabilization pass cap without converging.",
		}),
	}
	return m
}

// Handler returns an http.Handler serving this engine's metrics, for wiring
// into the CLI's --metrics-addr.
func (m *engineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
