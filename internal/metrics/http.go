package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(httpRequests, httpLatencySeconds, rateLimited)
}

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alap_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alap_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatencySeconds.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func RateLimited() {
	rateLimited.Inc()
}
