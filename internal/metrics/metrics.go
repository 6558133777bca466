// Package metrics wires the stretch core's instrumentation points to
// Prometheus, the way prometheus.go registers ka9q_ubersdr's noise-floor
// and decoder gauges with promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements stretch.Metrics with a small set of Prometheus
// collectors: one histogram for call duration, one gauge for active
// worker count, and one counter for chunks processed.
type Recorder struct {
	duration      prometheus.Histogram
	activeWorkers prometheus.Gauge
	chunksTotal   prometheus.Counter
}

// NewRecorder builds and registers the collectors against the default
// Prometheus registry.
func NewRecorder() *Recorder {
	return &Recorder{
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "paulstretch_stretch_duration_seconds",
			Help:    "Wall-clock duration of a single Stretch call.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
		activeWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "paulstretch_active_workers",
			Help: "Number of parallel workers currently processing chunks.",
		}),
		chunksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paulstretch_chunks_processed_total",
			Help: "Total number of WorkUnit chunks completed across all Stretch calls.",
		}),
	}
}

// ObserveStretchDuration implements stretch.Metrics.
func (r *Recorder) ObserveStretchDuration(seconds float64) {
	r.duration.Observe(seconds)
}

// SetActiveWorkers implements stretch.Metrics.
func (r *Recorder) SetActiveWorkers(n int) {
	r.activeWorkers.Set(float64(n))
}

// AddChunksProcessed implements stretch.Metrics.
func (r *Recorder) AddChunksProcessed(n int) {
	r.chunksTotal.Add(float64(n))
}
