package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's prometheus collectors on a private registry,
// served by the control server at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	pollTicks      prometheus.Counter
	pollErrors     prometheus.Counter
	sends          *prometheus.CounterVec
	cachedListings *prometheus.GaugeVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talad_backend_requests_total",
			Help: "Backend REST requests by method, resource and outcome.",
		}, []string{"method", "resource", "outcome"}),
		pollTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talad_chat_poll_ticks_total",
			Help: "Chat poll fetches attempted.",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talad_chat_poll_errors_total",
			Help: "Chat poll fetches that failed.",
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talad_chat_sends_total",
			Help: "Chat message sends by outcome.",
		}, []string{"outcome"}),
		cachedListings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "talad_cached_listings",
			Help: "Listings currently held in each kind's in-memory cache.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.requests, m.pollTicks, m.pollErrors, m.sends, m.cachedListings)
	return m
}

// ObserveRequest records one backend call. The path is collapsed to its
// first segment to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path, outcome string) {
	resource := path
	if trimmed := strings.TrimPrefix(path, "/"); trimmed != "" {
		resource, _, _ = strings.Cut(trimmed, "/")
	}
	m.requests.WithLabelValues(method, resource, outcome).Inc()
}

// IncPollTick counts one chat poll fetch.
func (m *Metrics) IncPollTick() { m.pollTicks.Inc() }

// IncPollError counts one failed chat poll fetch.
func (m *Metrics) IncPollError() { m.pollErrors.Inc() }

// ObserveSend records one chat send by outcome ("ok" or "error").
func (m *Metrics) ObserveSend(outcome string) {
	m.sends.WithLabelValues(outcome).Inc()
}

// SetCachedListings tracks a kind's in-memory cache size.
func (m *Metrics) SetCachedListings(kind string, n int) {
	m.cachedListings.WithLabelValues(kind).Set(float64(n))
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
