// Package api provides the HTTP API of the CSN admin authorization service.
//
// # Overview
//
// The server is built on gorilla/mux and exposes the authorizer and the audit
// logger to the admin web tier:
//
//	GET  /api/v1/authz/check?permission=write:content   decision for the caller
//	GET  /api/v1/roles                                  role table
//	GET  /api/v1/roles/{role}/permissions               permissions of one role
//	POST /api/v1/audit/actions                          record an admin action (202)
//	GET  /api/v1/audit/records                          query records (read:audit)
//	GET  /healthz, /readyz, /metrics
//
// # Usage
//
//	server := api.NewServer(api.Options{
//		Authorizer:  authorizer,
//		AuditLogger: auditLogger,
//		Verifier:    verifier,
//		Logger:      logger,
//	})
//	http.ListenAndServe(":8080", server)
//
// The authz check endpoint answers 200 for both outcomes; the body's
// "authorized" field carries the decision. Protected endpoints answer 401 for
// unauthenticated callers and 403 for every other denial.
package api
