// Package metrics exposes Prometheus counters for reconciliation activity.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tally"

// Metrics groups the collectors tally reports.
type Metrics struct {
	inserts       *prometheus.CounterVec
	duplicates    *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	importSeconds *prometheus.HistogramVec
	regenerated   *prometheus.CounterVec
}

// HTTP groups the request collectors of the API server.
type HTTP struct {
	requests    *prometheus.CounterVec
	requestTime *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg returns nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &Metrics{
		inserts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_inserted_total",
			Help:      "Records accepted by single inserts",
		}, []string{"dataset"}),
		duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_rejected_total",
			Help:      "Inserts rejected as near-duplicates",
		}, []string{"dataset"}),
		importRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Rows seen by bulk imports, by outcome",
		}, []string{"dataset", "outcome"}),
		importSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time spent running bulk imports",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dataset"}),
		regenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ids_regenerated_total",
			Help:      "Legacy identifiers replaced with generated ones",
		}, []string{"dataset"}),
	}
}

// NewHTTP registers the request collectors with reg. A nil reg returns nil.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &HTTP{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status",
		}, []string{"method", "route", "status"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Inserted counts an accepted insert.
func (m *Metrics) Inserted(dataset string) {
	if m == nil {
		return
	}
	m.inserts.WithLabelValues(dataset).Inc()
}

// DuplicateRejected counts an insert rejected as a duplicate.
func (m *Metrics) DuplicateRejected(dataset string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(dataset).Inc()
}

// Imported records the outcome of one bulk import.
func (m *Metrics) Imported(dataset string, added, duplicates int, took time.Duration) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(dataset, "new").Add(float64(added))
	m.importRows.WithLabelValues(dataset, "duplicate").Add(float64(duplicates))
	m.importSeconds.WithLabelValues(dataset).Observe(took.Seconds())
}

// Regenerated counts replaced identifiers.
func (m *Metrics) Regenerated(dataset string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.regenerated.WithLabelValues(dataset).Add(float64(n))
}

// Request records one served HTTP request.
func (m *HTTP) Request(method, route, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(took.Seconds())
}
