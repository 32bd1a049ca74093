// Package rbac provides the role and permission model for the CSN admin console.
//
// # Overview
//
// Admin roles are a closed set carried as a claim on the caller's session. Each
// role maps to a fixed PermissionSet. The mapping is defined once in this package
// and cannot be changed at runtime: PermissionsFor and BuiltInRoles return copies.
//
// # Permissions
//
// A permission is a token of the form "<action>:<resource>":
//
//	read:dashboard  - Baseline access granted to every role
//	write:content   - Create and edit videos and articles
//	write:games     - Manage games and live scores
//	write:blog      - Publish blog posts
//	write:users     - Manage admin users
//	write:system    - Change system settings
//
// # Roles
//
//	System Administrator     - Every permission; satisfies any role requirement
//	Sports Admin Coordinator - Games, analytics, read-only content
//	Content Manager          - Content and blog
//
// Role strings are matched exactly. "content manager" is not a role and fails closed.
//
// # Usage
//
//	perms := rbac.PermissionsFor(rbac.RoleContentManager)
//	if perms.Has(rbac.PermWriteContent) {
//		// allowed
//	}
//
//	rbac.ValidateRole("System Administrator", rbac.RoleContentManager) // true
//	rbac.ValidateRole("Content Manager", rbac.RoleSportsAdminCoordinator) // false
//
// # Related Packages
//
//   - pkg/authz: Combines identity, organization membership and this table into a decision
//   - pkg/auth: Parses the adminRole claim into a Role
package rbac
