package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Gate metrics
	GateDenialsTotal       *prometheus.CounterVec
	RateLimitRejectedTotal *prometheus.CounterVec

	// Credit metrics
	CreditsDebitedTotal *prometheus.CounterVec
	CreditDebitFailures prometheus.Counter

	// Revenue event metrics
	RevenueEventsTotal   *prometheus.CounterVec
	RevenueEventsDropped prometheus.Counter

	// Provider metrics
	ProviderCallsTotal *prometheus.CounterVec
	ProviderFallbacks  prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics on a private
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "complyscan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		GateDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_gate_denials_total",
				Help: "Requests short-circuited by a gate, by denial code",
			},
			[]string{"code", "tier"},
		),
		RateLimitRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_ratelimit_rejected_total",
				Help: "Requests rejected by the tier rate limiter",
			},
			[]string{"tier"},
		),

		CreditsDebitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_credits_debited_total",
				Help: "Credits successfully debited",
			},
			[]string{"tier"},
		),
		CreditDebitFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "complyscan_credit_debit_failures_total",
				Help: "Credit store errors during debit (not refusals)",
			},
		),

		RevenueEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_revenue_events_total",
				Help: "Revenue events recorded, by event type",
			},
			[]string{"event_type"},
		),
		RevenueEventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "complyscan_revenue_events_dropped_total",
				Help: "Revenue events dropped because the buffer was full",
			},
		),

		ProviderCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "complyscan_provider_calls_total",
				Help: "Outbound provider calls, by provider and status",
			},
			[]string{"provider", "status"},
		),
		ProviderFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "complyscan_provider_fallbacks_total",
				Help: "AI-fix requests served by the deterministic fallback",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GateDenialsTotal,
		m.RateLimitRejectedTotal,
		m.CreditsDebitedTotal,
		m.CreditDebitFailures,
		m.RevenueEventsTotal,
		m.RevenueEventsDropped,
		m.ProviderCallsTotal,
		m.ProviderFallbacks,
	)

	return m
}

// Handler returns the prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
