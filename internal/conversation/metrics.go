package conversation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	FollowUps    *prometheus.CounterVec
	CallsStarted *prometheus.CounterVec
	CallsEnded   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_tool_calls_total",
			Help: "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callfile_tool_duration_seconds",
			Help:    "Tool handler latency",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 20},
		}, []string{"tool"}),
		FollowUps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_follow_ups_total",
			Help: "Calls escalated for out-of-call follow-up, by reason",
		}, []string{"reason"}),
		CallsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_calls_started_total",
			Help: "Calls started, by greeting variant",
		}, []string{"greeting"}),
		CallsEnded: f.NewCounter(prometheus.CounterOpts{
			Name: "callfile_calls_ended_total",
			Help: "Calls closed by a summary",
		}),
	}
}

func (m *Metrics) ObserveTool(tool Tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(string(tool), outcome).Inc()
	m.ToolDuration.WithLabelValues(string(tool)).Observe(d.Seconds())
}

func (m *Metrics) IncFollowUp(reason string) {
	if m == nil {
		return
	}
	m.FollowUps.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncCallStarted(g Greeting) {
	if m == nil {
		return
	}
	m.CallsStarted.WithLabelValues(string(g)).Inc()
}

func (m *Metrics) IncCallEnded() {
	if m == nil {
		return
	}
	m.CallsEnded.Inc()
}
