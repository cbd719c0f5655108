package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "towncal_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "towncal_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	caldavRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "towncal_caldav_request_duration_seconds",
		Help:    "Histogram of latencies for outgoing CalDAV requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	publishAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "towncal_publish_attempts_total",
		Help: "Publish attempts by outcome (published, skipped, dropped, failed).",
	}, []string{"outcome"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "towncal_queue_depth",
		Help: "Number of publish jobs visible in the queue.",
	})
)

// Middleware records request count and latency with chi route labels.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := strconv.Itoa(ww.Status())
			httpRequestsTotal.WithLabelValues(r.Method, route).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCalDAVRequest records the latency of one outgoing CalDAV call.
func ObserveCalDAVRequest(method string, d time.Duration) {
	caldavRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// CountPublishAttempt increments the publish outcome counter.
func CountPublishAttempt(outcome string) {
	publishAttemptsTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth records the visible queue depth.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
