// Package metrics holds the Prometheus collectors of the canvas server. They
// are registered with the default registry and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Save and load outcomes.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultEmpty   = "empty"
)

var (
	// OpenCanvases tracks live canvas instances.
	OpenCanvases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kenaz_canvas_open_instances",
			Help: "Number of canvas instances currently open",
		},
	)

	// Saves counts autosave attempts by outcome. Skipped saves had an
	// unchanged payload.
	Saves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kenaz_canvas_saves_total",
			Help: "Total number of scene saves by result",
		},
		[]string{"result"},
	)

	// SaveSeconds observes store write latency.
	SaveSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kenaz_canvas_save_seconds",
			Help:    "Latency of scene store writes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Loads counts scene loads by outcome. Empty loads found nothing stored.
	Loads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kenaz_canvas_loads_total",
			Help: "Total number of scene loads by result",
		},
		[]string{"result"},
	)

	// Events counts input events dispatched to canvases by type.
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kenaz_canvas_events_total",
			Help: "Total number of input events dispatched by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(OpenCanvases)
	prometheus.MustRegister(Saves)
	prometheus.MustRegister(SaveSeconds)
	prometheus.MustRegister(Loads)
	prometheus.MustRegister(Events)
}
