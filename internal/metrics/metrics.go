package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service counters. A nil *Metrics is valid and records nothing,
// so packages can be used without a registry in tests.
type Metrics struct {
	contentFallbacks   *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	contactSubmissions *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		contentFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pluscode_content_fallback_total",
			Help: "Content queries answered from the bundled fallback catalog",
		}, []string{"content_type", "reason"}),
		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pluscode_cache_invalidations_total",
			Help: "Cache tags invalidated",
		}, []string{"source"}),
		contactSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pluscode_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pluscode_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pluscode_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.contentFallbacks, m.cacheInvalidations, m.contactSubmissions, m.httpRequests, m.httpDuration)
	return m
}

func (m *Metrics) ContentFallback(contentType, reason string) {
	if m == nil {
		return
	}
	m.contentFallbacks.WithLabelValues(contentType, reason).Inc()
}

func (m *Metrics) CacheInvalidated(source string, tags int) {
	if m == nil || tags <= 0 {
		return
	}
	m.cacheInvalidations.WithLabelValues(source).Add(float64(tags))
}

func (m *Metrics) ContactSubmission(outcome string) {
	if m == nil {
		return
	}
	m.contactSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
