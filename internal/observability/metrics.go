package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_http_requests_total",
			Help: "Total number of HTTP requests handled by the admin access service.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	accessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_access_decisions_total",
			Help: "Access checks performed by route guards, by kind and outcome.",
		},
		[]string{"kind", "role", "outcome"},
	)

	roleSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_role_switches_total",
			Help: "Role switches performed by admin sessions, by target role.",
		},
		[]string{"role"},
	)

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admin_active_sessions",
		Help: "Number of open admin sessions.",
	})
)

// RecordAccessDecision counts one guard decision. kind is the guard kind
// (permission, any_permission, all_permissions, section).
func RecordAccessDecision(kind, role string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	accessDecisionsTotal.WithLabelValues(kind, role, outcome).Inc()
}

// RecordRoleSwitch counts a role switch to role
func RecordRoleSwitch(role string) {
	roleSwitchesTotal.WithLabelValues(role).Inc()
}

// SessionOpened increments the open session gauge
func SessionOpened() {
	activeSessions.Inc()
}

// SessionClosed decrements the open session gauge
func SessionClosed() {
	activeSessions.Dec()
}

// MetricsMiddleware records request count and latency per chi route pattern.
// Unmatched requests are grouped under "unmatched" to bound cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newStatusRecorder(w)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
