// Package metrics holds the Prometheus collectors of the collector.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RefreshTotal     *prometheus.CounterVec
	RefreshDuration  *prometheus.HistogramVec
	RecordsWritten   *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ActiveTasks      prometheus.Gauge
}

// -----------------------------------------------------------------------------

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RefreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_refresh_total",
			Help: "Collection refreshes by outcome.",
		}, []string{"collection", "mode", "outcome"}),
		RefreshDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collector_refresh_duration_seconds",
			Help:    "Duration of collection refreshes.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"collection", "mode"}),
		RecordsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_records_written_total",
			Help: "Records written to the store by kind (inserted, updated, unchanged).",
		}, []string{"collection", "kind"}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_provider_requests_total",
			Help: "Data provider calls by outcome.",
		}, []string{"provider", "outcome"}),
		ActiveTasks: f.NewGauge(prometheus.GaugeOpts{
			Name: "collector_active_tasks",
			Help: "Tasks currently pending or running.",
		}),
	}
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveRefresh(collection, mode string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.RefreshTotal.WithLabelValues(collection, mode, outcome).Inc()
	m.RefreshDuration.WithLabelValues(collection, mode).Observe(elapsed.Seconds())
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveWrites(collection string, inserted, updated, unchanged int) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(collection, "inserted").Add(float64(inserted))
	m.RecordsWritten.WithLabelValues(collection, "updated").Add(float64(updated))
	m.RecordsWritten.WithLabelValues(collection, "unchanged").Add(float64(unchanged))
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveProvider(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
}

// -----------------------------------------------------------------------------

func (m *Metrics) SetActiveTasks(n int) {
	if m == nil {
		return
	}
	m.ActiveTasks.Set(float64(n))
}
