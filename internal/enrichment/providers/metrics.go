package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbound provider calls.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	CallsTotal   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callfile_provider_call_duration_seconds",
			Help:    "Latency of outbound provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider", "op"}),
		CallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_provider_calls_total",
			Help: "Outbound provider calls by outcome",
		}, []string{"provider", "op", "outcome"}),
	}
}

// ObserveCall is safe on a nil receiver.
func (m *Metrics) ObserveCall(provider, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(provider, op).Observe(d.Seconds())
	m.CallsTotal.WithLabelValues(provider, op, outcome).Inc()
}
