// Package middleware provides HTTP middleware for request IDs,
// authentication and authorization.
//
//	router.Use(middleware.RequestID)
//	router.Use(middleware.Authenticate(verifier, logger, metrics))
//	router.Handle("/games", middleware.RequirePermission(authorizer, rbac.PermWriteGames)(h))
//
// AuthMiddleware only attaches a verified session; RequirePermission and
// RequireRole turn the authorizer's decision into a 401 or 403.
package middleware
