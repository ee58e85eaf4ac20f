// Package appmetrics holds the Prometheus collectors exposed on /metrics.
package appmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNoop     = "noop"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg         *prometheus.Registry
	mutations   *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	webhook     *prometheus.CounterVec
}

// New registers the application collectors plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nestor",
			Name:      "project_mutations_total",
			Help:      "Project tree mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nestor",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request latency by flow and outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"flow", "outcome"}),
		webhook: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nestor",
			Name:      "telegram_updates_total",
			Help:      "Telegram webhook updates by outcome.",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(
		m.mutations,
		m.llmDuration,
		m.webhook,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Mutation counts one project mutation.
func (m *Metrics) Mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

// LLM observes one LLM call started at start.
func (m *Metrics) LLM(flow, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(flow, outcome).Observe(time.Since(start).Seconds())
}

// Webhook counts one Telegram update.
func (m *Metrics) Webhook(outcome string) {
	if m == nil {
		return
	}
	m.webhook.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
