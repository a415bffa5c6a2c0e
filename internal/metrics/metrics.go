// Package metrics holds the Prometheus collectors for the auth surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Logins         *prometheus.CounterVec
	GateRejections *prometheus.CounterVec
	Requests       *prometheus.HistogramVec
}

// New registers the collectors on reg. Passing nil uses a private registry,
// which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userhub",
			Name:      "logins_total",
			Help:      "Login attempts by role and result.",
		}, []string{"role", "result"}),
		GateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userhub",
			Name:      "gate_rejections_total",
			Help:      "Requests refused by the authorization gate.",
		}, []string{"role", "reason"}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "userhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.Logins, m.GateRejections, m.Requests)
	return m
}

func (m *Metrics) LoginResult(role, result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(role, result).Inc()
}

func (m *Metrics) GateRejected(role, reason string) {
	if m == nil {
		return
	}
	m.GateRejections.WithLabelValues(role, reason).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, status).Observe(seconds)
}
