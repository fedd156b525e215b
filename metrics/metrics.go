// Package metrics exposes decision-loop counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the engine's collectors on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Decisions        *prometheus.CounterVec
	TickDuration     *prometheus.HistogramVec
	EventResolutions *prometheus.CounterVec
	CacheRebuilds    prometheus.Counter
	Stops            *prometheus.CounterVec
	PerceptionErrors *prometheus.CounterVec
	Running          prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackside_decisions_total",
				Help: "Actions emitted by the decision loop",
			},
			[]string{"action", "state"},
		),

		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trackside_tick_duration_seconds",
				Help:    "Wall time of one decision tick, including perception and action",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"state"},
		),

		EventResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackside_event_resolutions_total",
				Help: "Narrative event lookups by outcome",
			},
			[]string{"source", "category"},
		),

		CacheRebuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trackside_event_cache_rebuilds_total",
				Help: "Times the event database was rebuilt instead of loaded from cache",
			},
		),

		Stops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackside_stops_total",
				Help: "Loop terminations by reason",
			},
			[]string{"reason"},
		),

		PerceptionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackside_perception_errors_total",
				Help: "Sensor reads that failed and fell back to defaults",
			},
			[]string{"sensor"},
		),

		Running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trackside_running",
				Help: "1 while the decision loop is active",
			},
		),
	}

	r.reg.MustRegister(
		r.Decisions,
		r.TickDuration,
		r.EventResolutions,
		r.CacheRebuilds,
		r.Stops,
		r.PerceptionErrors,
		r.Running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Decision(action, state string) {
	if r == nil {
		return
	}
	r.Decisions.WithLabelValues(action, state).Inc()
}

func (r *Registry) Tick(state string, d time.Duration) {
	if r == nil {
		return
	}
	r.TickDuration.WithLabelValues(state).Observe(d.Seconds())
}

func (r *Registry) EventResolved(source, category string) {
	if r == nil {
		return
	}
	r.EventResolutions.WithLabelValues(source, category).Inc()
}

func (r *Registry) CacheRebuilt() {
	if r == nil {
		return
	}
	r.CacheRebuilds.Inc()
}

func (r *Registry) Stopped(reason string) {
	if r == nil {
		return
	}
	r.Stops.WithLabelValues(reason).Inc()
}

func (r *Registry) PerceptionFailed(sensor string) {
	if r == nil {
		return
	}
	r.PerceptionErrors.WithLabelValues(sensor).Inc()
}

func (r *Registry) SetRunning(on bool) {
	if r == nil {
		return
	}
	if on {
		r.Running.Set(1)
	} else {
		r.Running.Set(0)
	}
}
