// Package authz decides whether the current caller may perform an admin
// operation.
//
// A decision composes identity resolution, the organization membership
// check, the admin role claim and the built-in permission table:
//
//	authorizer := authz.NewAuthorizer(resolver, authz.DefaultConfig("org_csn"))
//	result := authorizer.Authorize(ctx, rbac.PermWriteContent)
//	if !result.Authorized {
//		return result.Err()
//	}
//
// Denials are returned as values. The Error field of a denied Result holds
// the operator-facing reason; Result.Err converts it into a *DeniedError that
// matches the package sentinels with errors.Is.
package authz
