package enrichment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks call-start enrichment.
type Metrics struct {
	EnrichmentsTotal   *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EnrichmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_enrichments_total",
			Help: "Call-start enrichments by record source",
		}, []string{"source"}),
		EnrichmentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "callfile_enrichment_duration_seconds",
			Help:    "Wall time of call-start enrichment",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}
}

// ObserveEnrichment is safe on a nil receiver.
func (m *Metrics) ObserveEnrichment(source Source, d time.Duration) {
	if m == nil {
		return
	}
	m.EnrichmentsTotal.WithLabelValues(string(source)).Inc()
	m.EnrichmentDuration.Observe(d.Seconds())
}
