package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the logins counter.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
)

// Metrics holds its own registry so multiple instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	Logins       *prometheus.CounterVec
	HTTPRequests prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "logingate_logins_total", Help: "Login attempts by outcome"},
			[]string{"outcome"},
		),
		HTTPRequests: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "logingate_http_requests_total", Help: "Number of incoming HTTP requests"},
		),
	}

	m.registry.MustRegister(m.Logins, m.HTTPRequests)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
