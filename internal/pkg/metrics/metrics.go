package metrics

import (
	"net/http"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AugmentMetrics tracks what the engines do.
//
// Metrics:
//   - <ns>_augment_dispatches_total: transforms dispatched by variant and op
//   - <ns>_augment_skipped_total: UDA slots skipped by the coin flip
//   - <ns>_augment_applied_ops: ops applied per Apply call
//   - <ns>_augment_magnitude: dispatched magnitudes by op
//   - <ns>_jobs_total: finished augmentation jobs by status
type AugmentMetrics struct {
	registry *prometheus.Registry

	dispatchesTotal *prometheus.CounterVec
	skippedTotal    *prometheus.CounterVec
	appliedOps      *prometheus.HistogramVec
	magnitude       *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec
}

// New creates and registers the metrics on a fresh registry.
func New(namespace string) *AugmentMetrics {
	m := &AugmentMetrics{
		registry: prometheus.NewRegistry(),

		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "augment",
				Name:      "dispatches_total",
				Help:      "Total number of transforms dispatched",
			},
			[]string{"variant", "op"},
		),

		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "augment",
				Name:      "skipped_total",
				Help:      "Total number of sampled ops skipped",
			},
			[]string{"variant", "op"},
		),

		appliedOps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "augment",
				Name:      "applied_ops",
				Help:      "Number of ops applied per call",
				Buckets:   prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"variant"},
		),

		magnitude: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "augment",
				Name:      "magnitude",
				Help:      "Magnitudes passed to transforms",
				Buckets:   []float64{0, 0.1, 0.3, 0.5, 0.9, 1, 4, 10, 30, 128, 256},
			},
			[]string{"op"},
		),

		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Total number of finished augmentation jobs",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		m.dispatchesTotal,
		m.skippedTotal,
		m.appliedOps,
		m.magnitude,
		m.jobsTotal,
	)
	return m
}

func (m *AugmentMetrics) Dispatched(v augment.Variant, op augment.Op, magnitude float64) {
	m.dispatchesTotal.WithLabelValues(v.String(), op.String()).Inc()
	m.magnitude.WithLabelValues(op.String()).Observe(magnitude)
}

func (m *AugmentMetrics) Skipped(v augment.Variant, op augment.Op) {
	m.skippedTotal.WithLabelValues(v.String(), op.String()).Inc()
}

func (m *AugmentMetrics) Applied(v augment.Variant, dispatched int) {
	m.appliedOps.WithLabelValues(v.String()).Observe(float64(dispatched))
}

// JobFinished counts a job that ended with status.
func (m *AugmentMetrics) JobFinished(status string) {
	m.jobsTotal.WithLabelValues(status).Inc()
}

func (m *AugmentMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *AugmentMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
