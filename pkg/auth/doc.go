// Package auth resolves the identity of the caller making an admin request.
//
// # Overview
//
// The identity provider is external. This package reads what it reports, a
// Session with user ID, organization ID, organization role and raw session
// claims, and turns it into a typed Identity. Every failure on the way is
// reported as ErrNotAuthenticated so that an identity provider outage denies
// access instead of granting it.
//
// # Providers
//
//	ContextProvider   - Session placed on the request context by middleware.Authenticate
//	DevBypassProvider - Fixed System Administrator session, development only
//	ProviderFunc      - Adapter for tests and custom integrations
//
// Bearer tokens are verified by OIDCVerifier using the provider's signing keys.
// Verified sessions are cached by token hash until the token expires or the
// cache TTL elapses, whichever comes first.
//
// # Admin Role Claim
//
// The admin role lives at metadata.adminRole in the session claims. It is parsed
// once into a RoleClaim:
//
//	ClaimAbsent  - no claim, or an empty string
//	ClaimInvalid - present but not an exact role name, or not a string
//	ClaimValid   - RoleClaim.Role holds the rbac.Role
//
// # Usage
//
//	resolver := auth.NewResolver(auth.ContextProvider{})
//	identity, err := resolver.Resolve(ctx)
//	if err != nil {
//		// errors.Is(err, auth.ErrNotAuthenticated) is always true here
//	}
//	if identity.AdminRole.Valid() {
//		perms := rbac.PermissionsFor(identity.AdminRole.Role)
//	}
package auth
