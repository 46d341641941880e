package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quotaDecisions  *prometheus.CounterVec
	inquiries       *prometheus.CounterVec
}

func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		quotaDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "quota_decisions_total",
				Help:        "Quota checks by resource and outcome",
				ConstLabels: constLabels,
			},
			[]string{"resource", "outcome"},
		),
		inquiries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "inquiries_total",
				Help:        "Public inquiries by lead outcome",
				ConstLabels: constLabels,
			},
			[]string{"lead"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.quotaDecisions,
		m.inquiries,
	)
	return m
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// QuotaDecision records an allow or deny for resource
func (m *Metrics) QuotaDecision(resource string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.quotaDecisions.WithLabelValues(resource, outcome).Inc()
}

// Inquiry records an inquiry; lead is created, skipped or failed
func (m *Metrics) Inquiry(lead string) {
	if m == nil {
		return
	}
	m.inquiries.WithLabelValues(lead).Inc()
}
