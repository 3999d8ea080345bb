package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "watson",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "watson",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling duration, by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// PrometheusMetricsMiddleware records request counts and durations keyed
// by the matched chi route pattern, not the raw URL.
func PrometheusMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unknown"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestDurationHist.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		httpRequestsCounter.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}
