// Package httputil provides JSON response helpers, request parsing and
// common HTTP middleware.
//
// Every error response has the body {"error": "<message>"}:
//
//	httputil.WriteForbidden(w, result.Error)
//	httputil.WriteBadRequest(w, "permission is required")
//
// Middleware:
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.LoggingMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
package httputil
