package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "order_service"

// Transaction outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	transactionsTotal   *prometheus.CounterVec
	transactionDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Order storage operations by outcome.",
		}, []string{"operation", "outcome"}),
		transactionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of order storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Order lifecycle events by type and publish outcome.",
		}, []string{"event_type", "outcome"}),
	}

	m.registry.MustRegister(
		m.transactionsTotal,
		m.transactionDuration,
		m.httpRequestsTotal,
		m.eventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveTransaction(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(operation, outcome).Inc()
	m.transactionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveEventPublished(eventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
