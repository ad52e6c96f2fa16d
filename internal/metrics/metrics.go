package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_token_refreshes_total",
		Help: "Refresh-token exchanges by result.",
	}, []string{"result"})

	ReapedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_reaped_refresh_tokens_total",
		Help: "Expired refresh-token rows removed by the background sweep.",
	})
)
