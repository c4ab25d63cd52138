package receipt

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_ledger_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "receipt_ledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_ledger_analyses_total",
			Help: "Document analyses by outcome.",
		},
		[]string{"outcome"},
	)

	recordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_ledger_records_total",
			Help: "Extracted receipt records by status.",
		},
		[]string{"status"},
	)

	// Model calls routinely take tens of seconds on multi-page scans
	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_ledger_extract_duration_seconds",
		Help:    "Duration of successful model calls in seconds.",
		Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
	})
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// observe logs each request and records it in the HTTP metrics.
// The route label is the matched mux pattern, which keeps analysis IDs out of label values.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
