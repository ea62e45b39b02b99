package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the retriever.
type Metrics struct {
	Registry      *prometheus.Registry
	PagesTotal    *prometheus.CounterVec
	PageDuration  prometheus.Histogram
	RecordsTotal  prometheus.Counter
	AttemptsTotal *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	DetectedPages prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tse_pages_total",
			Help: "Result pages processed, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tse_page_duration_seconds",
			Help:    "Time to load and extract one result page.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tse_records_total",
			Help: "Records extracted from result pages.",
		},
	)
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tse_attempts_total",
			Help: "Retrieval attempts, by outcome.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tse_errors_total",
			Help: "Retrieval errors by type.",
		},
		[]string{"error_type"},
	)
	detected := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tse_detected_pages",
			Help: "Page count resolved for the latest aggregation.",
		},
	)

	registry.MustRegister(pages, pageDuration, records, attempts, errorsTotal, detected)

	return &Metrics{
		Registry:      registry,
		PagesTotal:    pages,
		PageDuration:  pageDuration,
		RecordsTotal:  records,
		AttemptsTotal: attempts,
		ErrorsTotal:   errorsTotal,
		DetectedPages: detected,
	}
}

// IncPage counts a processed page ("ok" or "failed").
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records how long a page took.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

// AddRecords adds n extracted records.
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// IncAttempt counts a retrieval attempt ("ok" or "failed").
func (m *Metrics) IncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetDetectedPages records the resolved page count.
func (m *Metrics) SetDetectedPages(n int) {
	if m == nil {
		return
	}
	m.DetectedPages.Set(float64(n))
}
