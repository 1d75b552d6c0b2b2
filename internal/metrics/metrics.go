// Package metrics holds the prometheus collectors for the install handshake.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	InstallRedirects *prometheus.CounterVec
	Callbacks        *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		InstallRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "install_redirects_total",
			Help: "Install requests by result.",
		}, []string{"result"}),
		Callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_callbacks_total",
			Help: "OAuth callbacks by result.",
		}, []string{"result"}),
		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "token_exchange_duration_seconds",
			Help:    "Duration of the access token exchange with the shop.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.InstallRedirects,
		m.Callbacks,
		m.ExchangeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveExchange(outcome string, started time.Time) {
	m.ExchangeDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
