// Package metrics exposes prometheus instruments for the HTTP surface and
// the circulation workflow.
package metrics

import (
	"net/http"

	"github.com/irisdrone/library/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	circulation *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// New registers the instruments on reg. Handler serves everything in reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "library",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		circulation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "circulation_total",
			Help:      "Borrow and return attempts by outcome.",
		}, []string{"operation", "outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.latency, m.circulation)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route).Observe(seconds)
}

// RecordCirculation implements services.Recorder.
func (m *Metrics) RecordCirculation(op services.Operation, outcome string) {
	m.circulation.WithLabelValues(string(op), outcome).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
