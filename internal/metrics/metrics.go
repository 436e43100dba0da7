// Package metrics holds the Prometheus collectors of the delivery service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus_delivery"

// Metrics owns a private registry so several instances (e.g. in tests) do not
// collide on the global one. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	Transitions  *prometheus.CounterVec
	SettledPoint prometheus.Counter
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Order status transitions by target status.",
	}, []string{"status"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "settled_points_total",
		Help:      "Points transferred from customers to deliverers.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(requests, latency, transitions, settled,
		prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return &Metrics{registry: reg, Requests: requests, LatencyMS: latency, Transitions: transitions, SettledPoint: settled}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(handler, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(took) / float64(time.Millisecond))
}

// OrderTransition records an order entering status.
func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

// PointsSettled records points moved at completion.
func (m *Metrics) PointsSettled(n int64) {
	if m == nil {
		return
	}
	m.SettledPoint.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
