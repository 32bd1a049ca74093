package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decision outcomes
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal   *prometheus.CounterVec
	AuthzDecisionDuration prometheus.Histogram

	// Token verification
	TokenVerificationsTotal *prometheus.CounterVec

	// Audit metrics
	AuditRecordsWritten prometheus.Counter
	AuditRecordsDropped *prometheus.CounterVec

	otel *otelInstruments
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csn_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "csn_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csn_authz_decisions_total",
				Help: "Total number of authorization decisions by outcome and denial kind",
			},
			[]string{"outcome", "kind"},
		),
		AuthzDecisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "csn_authz_decision_duration_seconds",
				Help:    "Authorization decision latency in seconds, including identity resolution",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		TokenVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csn_token_verifications_total",
				Help: "Total number of bearer token verifications by result",
			},
			[]string{"result"},
		),

		AuditRecordsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "csn_audit_records_written_total",
				Help: "Total number of audit records written",
			},
		),
		AuditRecordsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csn_audit_records_dropped_total",
				Help: "Total number of audit records dropped by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.AuthzDecisionDuration,
		m.TokenVerificationsTotal,
		m.AuditRecordsWritten,
		m.AuditRecordsDropped,
	)

	return m
}

// RecordDecision counts an authorization decision. An empty kind is
// recorded as "none".
func (m *Metrics) RecordDecision(kind string, authorized bool, duration time.Duration) {
	outcome := OutcomeDenied
	if authorized {
		outcome = OutcomeAllowed
	}
	if kind == "" {
		kind = "none"
	}

	m.AuthzDecisionsTotal.WithLabelValues(outcome, kind).Inc()
	m.AuthzDecisionDuration.Observe(duration.Seconds())
	m.otel.recordDecision(outcome, kind)
}

// RecordTokenVerification counts a bearer token verification result
func (m *Metrics) RecordTokenVerification(result string) {
	m.TokenVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordAuditWritten counts a written audit record
func (m *Metrics) RecordAuditWritten() {
	m.AuditRecordsWritten.Inc()
}

// RecordAuditDropped counts a dropped audit record
func (m *Metrics) RecordAuditDropped(reason string) {
	m.AuditRecordsDropped.WithLabelValues(reason).Inc()
	m.otel.recordAuditDrop(reason)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests. Requests are labelled with
// the mux route template so path variables do not explode cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
