// Package metrics provides Prometheus instrumentation for the wager engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WagersTotal counts wagers accepted into pools.
	WagersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringside_wagers_total",
		Help: "Total number of wagers accepted",
	})

	// WagerAmountTotal accumulates accepted stake in the smallest currency unit.
	WagerAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringside_wager_amount_total",
		Help: "Cumulative accepted stake in smallest currency units",
	})

	// WagersRejected counts rejected wagers by reason.
	WagersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringside_wagers_rejected_total",
		Help: "Wagers rejected before acceptance",
	}, []string{"reason"})

	// SettlementsTotal counts terminal settlements by result.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringside_settlements_total",
		Help: "Total pools settled",
	}, []string{"result"})

	// HouseTakeTotal accumulates the house take (rounding dust included).
	HouseTakeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringside_house_take_total",
		Help: "Cumulative house take in smallest currency units",
	})

	// LockContention counts operations that failed on a contended resource.
	LockContention = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringside_lock_contention_total",
		Help: "Operations rejected by bounded lock wait",
	})

	// OpenPools tracks the number of pools currently accepting wagers.
	OpenPools = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ringside_open_pools",
		Help: "Number of pools currently open",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ringside_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ringside_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ringside_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; route shapes are few enough
		// to keep cardinality manageable.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
