package archive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Entries       *prometheus.CounterVec
	WriteDuration prometheus.Histogram
	QueueDepth    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Entries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_archive_entries_total",
			Help: "Archive entries by outcome (written, failed, dropped)",
		}, []string{"outcome"}),
		WriteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "callfile_archive_write_duration_seconds",
			Help:    "Sink write latency for archive entries",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "callfile_archive_queue_depth",
			Help: "Entries waiting in the async archive queue",
		}),
	}
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.WriteDuration.Observe(d.Seconds())
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
