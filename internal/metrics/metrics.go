// Package metrics exposes Prometheus counters for the appender's drops,
// sends and transport failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons.
const (
	ReasonIncomplete = "incomplete_config"
	ReasonClosed     = "closed"
	ReasonNoLayout   = "no_layout"
	ReasonPanic      = "panic"
)

// Metrics groups the appender counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Dropped      *prometheus.CounterVec
	Sent         *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
	DryRuns      prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_event_dropped_total",
			Help: "Total number of log events dropped without an email being attempted",
		}, []string{"reason"}),
		Sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_event_sent_total",
			Help: "Total number of log event emails handed to the provider successfully",
		}, []string{"provider"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_event_send_failures_total",
			Help: "Total number of log event emails the provider failed to deliver",
		}, []string{"provider"}),
		DryRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mail_event_dry_runs_total",
			Help: "Total number of log events traced instead of sent",
		}),
	}

	reg.MustRegister(m.Dropped, m.Sent, m.SendFailures, m.DryRuns)
	return m
}

func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncSent(provider string) {
	if m == nil {
		return
	}
	m.Sent.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncSendFailure(provider string) {
	if m == nil {
		return
	}
	m.SendFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncDryRun() {
	if m == nil {
		return
	}
	m.DryRuns.Inc()
}

// Handler returns an http.Handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
