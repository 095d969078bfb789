// Package metrics collects run counters and latencies and pushes them
// to a Pushgateway when the run ends. Runs are one-shot CI jobs, so
// there is nothing to scrape; without a configured gateway every
// recorder method is a no-op.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/netreserve/netreserve/internal/config"
)

// Recorder accumulates metrics for one run. A nil Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	plansTotal           *prometheus.CounterVec
	appliesTotal         *prometheus.CounterVec
	allocatorExhaustions *prometheus.CounterVec
	backendLatency       *prometheus.HistogramVec
}

// New builds a recorder pushing to the configured gateway. Returns nil
// when no gateway is configured.
func New(cfg config.MetricsConfig) *Recorder {
	if cfg.Gateway == "" {
		return nil
	}
	job := cfg.Job
	if job == "" {
		job = "netreserve"
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		plansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netreserve",
				Subsystem: "plan",
				Name:      "runs_total",
				Help:      "Total number of plan runs by resource kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		appliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netreserve",
				Subsystem: "apply",
				Name:      "runs_total",
				Help:      "Total number of apply runs by resource kind and result",
			},
			[]string{"kind", "result"},
		),
		allocatorExhaustions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netreserve",
				Subsystem: "allocator",
				Name:      "exhaustions_total",
				Help:      "Total number of views with no free block of the requested size",
			},
			[]string{"view"},
		),
		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "netreserve",
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Latency of backend calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"backend", "operation"},
		),
	}
	r.registry.MustRegister(
		r.plansTotal,
		r.appliesTotal,
		r.allocatorExhaustions,
		r.backendLatency,
	)
	r.pusher = push.New(cfg.Gateway, job).Gatherer(r.registry)

	return r
}

// RecordPlan records one plan run.
func (r *Recorder) RecordPlan(kind, outcome string) {
	if r == nil {
		return
	}
	r.plansTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordApply records one apply run.
func (r *Recorder) RecordApply(kind, result string) {
	if r == nil {
		return
	}
	r.appliesTotal.WithLabelValues(kind, result).Inc()
}

// RecordAllocatorExhaustion records a view with no free block left.
func (r *Recorder) RecordAllocatorExhaustion(view string) {
	if r == nil {
		return
	}
	r.allocatorExhaustions.WithLabelValues(view).Inc()
}

// RecordBackendCall records the latency of one backend call.
func (r *Recorder) RecordBackendCall(backend, operation string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.backendLatency.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// Push sends the accumulated metrics to the gateway. Push failures are
// the caller's to log; they never fail the run.
func (r *Recorder) Push(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
