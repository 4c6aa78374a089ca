package webapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentbook_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// requestMetrics records a counter and a duration histogram per route.
func requestMetrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		requestCounter.WithLabelValues(ctx.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(ctx.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
