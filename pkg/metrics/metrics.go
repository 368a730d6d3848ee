// Package metrics holds the Prometheus collectors of the escrow services.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "escrow"

// Metrics groups the escrow collectors.
type Metrics struct {
	transitions      *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	lockWait         prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Committed state transitions by aggregate.",
		}, []string{"aggregate", "from", "to"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Payment provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Payment provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a per-transaction lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.providerRequests, m.providerLatency, m.lockWait} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Transition counts a committed state change.
func (m *Metrics) Transition(aggregate, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(aggregate, from, to).Inc()
}

// ProviderRequest records one provider call started at start.
func (m *Metrics) ProviderRequest(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.providerRequests.WithLabelValues(operation, outcome).Inc()
	m.providerLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// LockWait records how long a lock acquisition took.
func (m *Metrics) LockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
