// Package metrics instruments the UI-facing API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served to the portal UI by route and status class",
		},
		[]string{"method", "route", "class"},
	)

	upstreamFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carebridge",
			Subsystem: "http",
			Name:      "upstream_failures_total",
			Help:      "Requests answered with 502 because the directory/transport service failed",
		},
		[]string{"route"},
	)

	// Attachment and document routes proxy the upload synchronously.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carebridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request duration by route",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 15, 30, 60, 120},
		},
		[]string{"route"},
	)

	responseBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carebridge",
			Subsystem: "http",
			Name:      "response_bytes",
			Help:      "Response body size by route, previews dominate the upper buckets",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 9), // 256B .. 16MiB
		},
		[]string{"route"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "carebridge",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being processed, including polling ticks and uploads",
		},
	)
)

// recorder captures the status code and body size of a response.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// routeLabel is the chi route pattern, so conversation keys and message ids
// never become label values.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// Middleware records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		requestsTotal.WithLabelValues(r.Method, route, statusClass(rec.status)).Inc()
		if rec.status == http.StatusBadGateway {
			upstreamFailuresTotal.WithLabelValues(route).Inc()
		}
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		responseBytes.WithLabelValues(route).Observe(float64(rec.bytes))
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
