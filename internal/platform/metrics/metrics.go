// Package metrics holds the Prometheus instruments of the focus engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors updated by the router and scheduler.
//
// All metrics are prefixed with "tabfocus_":
//   - tabfocus_transitions_total{phase} - session tracker transitions by target phase
//   - tabfocus_reminders_total{result} - reminder deliveries by result (sent, failed)
//   - tabfocus_checks_skipped_total{reason} - out-of-focus checks that did nothing
//   - tabfocus_focus_seconds_total - seconds accumulated into tracking records
//   - tabfocus_store_errors_total{store} - persistence failures
//   - tabfocus_tracked_domains - number of tracking records
type Metrics struct {
	Transitions    *prometheus.CounterVec
	Reminders      *prometheus.CounterVec
	ChecksSkipped  *prometheus.CounterVec
	FocusSeconds   prometheus.Counter
	StoreErrors    *prometheus.CounterVec
	TrackedDomains prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabfocus_transitions_total",
			Help: "Session tracker transitions labeled by the phase entered.",
		}, []string{"phase"}),
		Reminders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabfocus_reminders_total",
			Help: "Out-of-focus reminders labeled by delivery result.",
		}, []string{"result"}),
		ChecksSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabfocus_checks_skipped_total",
			Help: "Out-of-focus checks skipped labeled by reason.",
		}, []string{"reason"}),
		FocusSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabfocus_focus_seconds_total",
			Help: "Seconds of focus time accumulated into tracking records.",
		}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabfocus_store_errors_total",
			Help: "Persistence failures labeled by store.",
		}, []string{"store"}),
		TrackedDomains: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabfocus_tracked_domains",
			Help: "Number of domains with a tracking record.",
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
