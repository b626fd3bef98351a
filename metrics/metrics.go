// Package metrics exposes the storefront's business counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	ordersCreated   prometheus.Counter
	bookingsCreated prometheus.Counter
	transitions     *prometheus.CounterVec
	logins          *prometheus.CounterVec
}

// New registers the counters plus Go runtime and process collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrimart",
			Name:      "orders_created_total",
			Help:      "Orders written by checkout.",
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrimart",
			Name:      "bookings_created_total",
			Help:      "Equipment bookings written.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrimart",
			Name:      "status_transitions_total",
			Help:      "Status transition attempts by record kind and result.",
		}, []string{"kind", "result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrimart",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.bookingsCreated,
		m.transitions,
		m.logins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) OrderCreated()   { m.ordersCreated.Inc() }
func (m *Metrics) BookingCreated() { m.bookingsCreated.Inc() }

func (m *Metrics) StatusChanged(kind, result string) {
	m.transitions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) LoginAttempt(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
