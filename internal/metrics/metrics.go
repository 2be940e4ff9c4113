// Package metrics defines the Prometheus collectors herodex components report to.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "herodex"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SettingsWrites  *prometheus.CounterVec
	Notifications   prometheus.Counter
	CatalogRequests *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SettingsWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "writes_total",
			Help:      "Settings document writes by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "theme",
			Name:      "notifications_total",
			Help:      "Subscriber callbacks invoked by the theme registry.",
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog API requests by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.SettingsWrites, m.Notifications, m.CatalogRequests)
	}
	return m
}

// ObserveWrite records a settings write outcome.
func (m *Metrics) ObserveWrite(err error) {
	if m == nil {
		return
	}
	m.SettingsWrites.WithLabelValues(result(err)).Inc()
}

// ObserveNotification records one subscriber callback.
func (m *Metrics) ObserveNotification() {
	if m == nil {
		return
	}
	m.Notifications.Inc()
}

// ObserveCatalogRequest records a catalog request outcome.
func (m *Metrics) ObserveCatalogRequest(err error) {
	if m == nil {
		return
	}
	m.CatalogRequests.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
