package rbac

import (
	"errors"
	"sort"
	"strings"
)

// Resource represents a resource family in the admin console
type Resource string

const (
	ResourceDashboard Resource = "dashboard"
	ResourceContent   Resource = "content"
	ResourceGames     Resource = "games"
	ResourceBlog      Resource = "blog"
	ResourceUsers     Resource = "users"
	ResourceAnalytics Resource = "analytics"
	ResourceAudit     Resource = "audit"
	ResourceSystem    Resource = "system"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Permission is a token of the form "<action>:<resource>", e.g. "write:content"
type Permission string

// Common permissions
const (
	PermReadDashboard Permission = "read:dashboard"
	PermReadContent   Permission = "read:content"
	PermWriteContent  Permission = "write:content"
	PermReadGames     Permission = "read:games"
	PermWriteGames    Permission = "write:games"
	PermReadBlog      Permission = "read:blog"
	PermWriteBlog     Permission = "write:blog"
	PermReadUsers     Permission = "read:users"
	PermWriteUsers    Permission = "write:users"
	PermReadAnalytics Permission = "read:analytics"
	PermReadAudit     Permission = "read:audit"
	PermReadSystem    Permission = "read:system"
	PermWriteSystem   Permission = "write:system"
)

// ErrMalformedPermission is returned by ParsePermission for tokens that are not "<action>:<resource>"
var ErrMalformedPermission = errors.New("rbac: malformed permission")

// NewPermission builds a permission from an action and a resource
func NewPermission(action Action, resource Resource) Permission {
	return Permission(string(action) + ":" + string(resource))
}

// ParsePermission validates the "<action>:<resource>" shape. It does not check
// that the permission is granted to any role.
func ParsePermission(s string) (Permission, error) {
	action, resource, ok := strings.Cut(s, ":")
	if !ok || action == "" || resource == "" || strings.Contains(resource, ":") {
		return "", ErrMalformedPermission
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", ErrMalformedPermission
	}
	return Permission(s), nil
}

// Action returns the action half of the permission
func (p Permission) Action() Action {
	action, _, _ := strings.Cut(string(p), ":")
	return Action(action)
}

// Resource returns the resource half of the permission
func (p Permission) Resource() Resource {
	_, resource, _ := strings.Cut(string(p), ":")
	return Resource(resource)
}

// String returns the token form of the permission
func (p Permission) String() string {
	return string(p)
}

// Role is an admin role carried as a claim on the caller's identity.
// Values are exact, case-sensitive strings.
type Role string

// Built-in role names
const (
	RoleSystemAdministrator    Role = "System Administrator"
	RoleSportsAdminCoordinator Role = "Sports Admin Coordinator"
	RoleContentManager         Role = "Content Manager"
)

// TopRole is the wildcard role: it satisfies every role requirement and its
// permission set contains every other role's set.
const TopRole = RoleSystemAdministrator

// PermissionSet is an immutable set of permissions. The zero value is the empty set.
type PermissionSet struct {
	perms map[Permission]struct{}
}

func newPermissionSet(perms ...Permission) PermissionSet {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return PermissionSet{perms: m}
}

// Has reports whether the set contains the permission
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.perms[p]
	return ok
}

// Len returns the number of permissions in the set
func (s PermissionSet) Len() int {
	return len(s.perms)
}

// IsEmpty reports whether the set grants nothing
func (s PermissionSet) IsEmpty() bool {
	return len(s.perms) == 0
}

// List returns the permissions in sorted order. The slice is a copy.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s.perms))
	for p := range s.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSupersetOf reports whether every permission in other is also in s
func (s PermissionSet) IsSupersetOf(other PermissionSet) bool {
	for p := range other.perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// RoleDefinition describes a built-in role for listing endpoints
type RoleDefinition struct {
	Name        Role         `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}
