// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"deposit-service/internal/domain"
)

// Outcome label values besides rejection reasons
const (
	OutcomeVerified = "verified"
	OutcomeCredited = "credited"
	OutcomeError    = "error"
)

// Metrics holds the deposit collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	verifications   *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	pendingReviewed *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_verifications_total",
			Help: "Deposit verification outcomes by network.",
		}, []string{"network", "outcome"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deposit_adapter_duration_seconds",
			Help:    "Latency of on-chain transaction lookups.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"network"}),
		pendingReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_pending_reviewed_total",
			Help: "Pending deposits resolved, by resolution.",
		}, []string{"network", "resolution"}),
	}

	m.registry.MustRegister(
		m.verifications,
		m.adapterDuration,
		m.pendingReviewed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is served by the /metrics endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Verification counts one engine outcome
func (m *Metrics) Verification(network domain.Network, outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(labelNetwork(network), outcome).Inc()
}

// AdapterCall records the duration of one adapter lookup
func (m *Metrics) AdapterCall(network domain.Network, d time.Duration) {
	if m == nil {
		return
	}
	m.adapterDuration.WithLabelValues(labelNetwork(network)).Observe(d.Seconds())
}

// PendingReviewed counts a pending deposit leaving the queue
func (m *Metrics) PendingReviewed(network domain.Network, resolution domain.DepositStatus) {
	if m == nil {
		return
	}
	m.pendingReviewed.WithLabelValues(labelNetwork(network), string(resolution)).Inc()
}

// Unknown networks share one label so clients cannot grow cardinality
func labelNetwork(n domain.Network) string {
	if _, ok := domain.ParseNetwork(string(n)); ok {
		return string(n)
	}
	return "unknown"
}
