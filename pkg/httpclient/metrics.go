package httpclient

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Logical API requests by method and final status",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "Logical API request latency including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_retries_total",
			Help: "Request replays by reason (rate_limit, unauthorized)",
		},
		[]string{"reason"},
	)

	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_token_refresh_total",
			Help: "Access token refresh calls by outcome",
		},
		[]string{"outcome"},
	)

	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(retriesTotal)
	prometheus.MustRegister(tokenRefreshTotal)
	prometheus.MustRegister(circuitBreakerState)
}
