// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing and health probes.
//
// # Logging
//
//	logger, err := observability.NewLogger("info", observability.FormatJSON, os.Stdout)
//	observability.FromContext(ctx).Info("role table served")
//
// FromContext adds request_id and user_id fields when the request carries them.
//
// # Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	router.Handle("/metrics", observability.MetricsHandler(registry))
//
// Metrics implements the decision recorder used by pkg/authz and the audit
// recorder used by pkg/audit.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("audit_db", sink.Ping, true)
//
// # OpenTelemetry
//
// InitOTel installs OTLP gRPC tracer and meter providers when enabled.
// Otherwise the global no-op providers stay in place.
package observability
