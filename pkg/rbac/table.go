package rbac

// builtInRole pairs a role with its description and grants
type builtInRole struct {
	role        Role
	description string
	perms       PermissionSet
}

// roleTable is ordered from most to least privileged and is never modified
// after package initialization. Callers only see copies.
var roleTable = []builtInRole{
	{
		role:        RoleSystemAdministrator,
		description: "Full access to the admin console, users and system settings",
		perms: newPermissionSet(
			PermReadDashboard,
			PermReadContent, PermWriteContent,
			PermReadGames, PermWriteGames,
			PermReadBlog, PermWriteBlog,
			PermReadUsers, PermWriteUsers,
			PermReadAnalytics,
			PermReadAudit,
			PermReadSystem, PermWriteSystem,
		),
	},
	{
		role:        RoleSportsAdminCoordinator,
		description: "Manages games, schedules and live scores",
		perms: newPermissionSet(
			PermReadDashboard,
			PermReadGames, PermWriteGames,
			PermReadContent,
			PermReadAnalytics,
		),
	},
	{
		role:        RoleContentManager,
		description: "Manages videos, articles and blog posts",
		perms: newPermissionSet(
			PermReadDashboard,
			PermReadContent, PermWriteContent,
			PermReadBlog, PermWriteBlog,
			PermReadGames,
		),
	},
}

var roleIndex = func() map[Role]int {
	idx := make(map[Role]int, len(roleTable))
	for i, r := range roleTable {
		idx[r.role] = i
	}
	return idx
}()

// PermissionsFor returns the permission set granted to role.
// Unknown roles get the empty set.
func PermissionsFor(role Role) PermissionSet {
	i, ok := roleIndex[role]
	if !ok {
		return PermissionSet{}
	}
	// Hand out a fresh set so the table stays private.
	return newPermissionSet(roleTable[i].perms.List()...)
}

// Roles returns the defined roles from most to least privileged
func Roles() []Role {
	out := make([]Role, len(roleTable))
	for i, r := range roleTable {
		out[i] = r.role
	}
	return out
}

// BuiltInRoles returns all built-in role definitions
func BuiltInRoles() []RoleDefinition {
	defs := make([]RoleDefinition, 0, len(roleTable))
	for _, r := range roleTable {
		defs = append(defs, RoleDefinition{
			Name:        r.role,
			Description: r.description,
			Permissions: r.perms.List(),
		})
	}
	return defs
}

// HasPermission reports whether role grants perm
func HasPermission(role Role, perm Permission) bool {
	i, ok := roleIndex[role]
	if !ok {
		return false
	}
	return roleTable[i].perms.Has(perm)
}
