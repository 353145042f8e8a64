// Package metrics is the satellite Prometheus collaborator for per-stage
// latency instrumentation: the core pipe package only depends on the tiny
// pipe.Histogram interface, so swapping in a different metrics backend
// never touches pipe/elements.go. Built on prometheus/client_golang,
// generalized from a plain request counter to a latency histogram suited
// to pipe.Latency's per-item observations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyHistogram wraps a prometheus.Histogram and satisfies
// pipe.Histogram (Observe(seconds float64)) without pipe importing
// Prometheus at all.
type LatencyHistogram struct {
	h prometheus.Histogram
}

// NewLatencyHistogram registers (with registry) and returns a
// latency-in-seconds histogram for the named stage. Buckets default to
// prometheus.DefBuckets unless buckets is non-empty, since a pipeline's
// latencies can span from sub-microsecond to multi-millisecond depending
// on the stage.
func NewLatencyHistogram(registry prometheus.Registerer, stage string, buckets []float64) (*LatencyHistogram, error) {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "roda",
		Subsystem: "stage",
		Name:      "latency_seconds",
		Help:      "Per-item entry-to-observation latency for a pipeline stage.",
		ConstLabels: prometheus.Labels{
			"stage": stage,
		},
		Buckets: buckets,
	})
	if registry != nil {
		if err := registry.Register(h); err != nil {
			return nil, err
		}
	}
	return &LatencyHistogram{h: h}, nil
}

// Observe records one latency sample, in seconds.
func (l *LatencyHistogram) Observe(seconds float64) {
	l.h.Observe(seconds)
}

// Collector exposes the underlying prometheus.Collector, so callers can
// register the whole stage's histograms onto a shared /metrics registry
// without reaching back into LatencyHistogram's internals.
func (l *LatencyHistogram) Collector() prometheus.Collector {
	return l.h
}
