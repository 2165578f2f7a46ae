package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DecisionsTotal *prometheus.CounterVec
	EmailsTotal    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_consent_decisions_total",
			Help: "Consent decisions by type, decision and whether the log append succeeded",
		}, []string{"type", "decision", "logged"}),
		EmailsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callfile_confirmation_emails_total",
			Help: "Confirmation email attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncDecision(typ string, decision, logged bool) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(typ, yesNo(decision), yesNo(logged)).Inc()
}

func (m *Metrics) IncEmail(outcome string) {
	if m == nil {
		return
	}
	m.EmailsTotal.WithLabelValues(outcome).Inc()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
