package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpapi",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP exchanges with the gateway.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpapi",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "HTTP exchanges with the gateway by method and status code.",
	}, []string{"method", "status"})

	tokenRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpapi",
		Subsystem: "gateway",
		Name:      "token_requests_total",
		Help:      "Access token acquisitions sent to the gateway.",
	})

	tokenCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpapi",
		Subsystem: "gateway",
		Name:      "token_cache_hits_total",
		Help:      "Requests served with an already cached access token.",
	})
)
