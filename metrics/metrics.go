package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "reconciler_"

// Metrics bundles reconciliation metrics.
type Metrics struct {
	DocumentsTotal   *prometheus.CounterVec
	DocumentDuration *prometheus.HistogramVec
	AmountTotal      *prometheus.CounterVec
	ReportsTotal     *prometheus.CounterVec
}

// New constructs metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "documents_total",
				Help: "Total documents processed by category, status and provenance",
			},
			[]string{"category", "status", "provenance"},
		),
		DocumentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "document_duration_seconds",
				Help:    "Per-document read and extract duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provenance"},
		),
		AmountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "amount_total",
				Help: "Sum of accepted amounts by category",
			},
			[]string{"category"},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reports_total",
				Help: "Total reports written by format",
			},
			[]string{"format"},
		),
	}
	reg.MustRegister(
		m.DocumentsTotal,
		m.DocumentDuration,
		m.AmountTotal,
		m.ReportsTotal,
	)
	return m
}

// ObserveDocument records one processed document. Safe on a nil receiver.
func (m *Metrics) ObserveDocument(category, status, provenance string, amount float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(category, status, provenance).Inc()
	m.DocumentDuration.WithLabelValues(provenance).Observe(elapsed.Seconds())
	if amount > 0 {
		m.AmountTotal.WithLabelValues(category).Add(amount)
	}
}

// ObserveReport counts a written report. Safe on a nil receiver.
func (m *Metrics) ObserveReport(format string) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(format).Inc()
}
