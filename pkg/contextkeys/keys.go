// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here so that
// setters and getters in different packages agree on a single key value.
//
// USAGE PATTERN:
//
//	import "github.com/csnsports/csn-admin/pkg/contextkeys"
//	ctx = contextkeys.WithSession(ctx, session)
//	session, _ := ctx.Value(contextkeys.SessionKey).(*auth.Session)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *auth.Session
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: auth.ContextProvider, and through it the Authorizer and audit logger
	// Type: *auth.Session
	SessionKey Key = "session"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, audit records
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated user ID string
	// Set by: middleware.AuthMiddleware after token verification
	// Used by: Logger
	// Type: string
	UserIDKey Key = "user_id"
)

// WithSession adds the caller's session to the context
func WithSession(ctx context.Context, session interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
