package gbp

import "github.com/prometheus/client_golang/prometheus"

var (
	upstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_call_attempts_total",
			Help: "Upstream API call attempts, retries included",
		},
		[]string{"operation"},
	)

	upstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_call_retries_total",
			Help: "Upstream API call retries after a retryable failure",
		},
		[]string{"operation"},
	)

	upstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_call_failures_total",
			Help: "Upstream API calls that failed after all attempts",
		},
		[]string{"operation", "kind"},
	)

	upstreamCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_cache_hits_total",
			Help: "Upstream API calls served from the TTL cache",
		},
		[]string{"operation"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "upstream_call_duration_seconds",
			Help: "Latency of successful upstream API calls",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(upstreamAttempts)
	prometheus.MustRegister(upstreamRetries)
	prometheus.MustRegister(upstreamFailures)
	prometheus.MustRegister(upstreamCacheHits)
	prometheus.MustRegister(upstreamDuration)
}
