package auth

import (
	"strings"
	"time"

	"github.com/csnsports/csn-admin/pkg/rbac"
)

// Session is what the identity provider reports about the current caller
type Session struct {
	UserID    string                 `json:"user_id"`
	OrgID     string                 `json:"org_id,omitempty"`
	OrgRole   string                 `json:"org_role,omitempty"`
	Claims    map[string]interface{} `json:"claims,omitempty"`
	ExpiresAt time.Time              `json:"expires_at,omitempty"`
}

// ClaimState tags the outcome of parsing the adminRole claim
type ClaimState int

const (
	// ClaimAbsent means the session carries no adminRole claim
	ClaimAbsent ClaimState = iota
	// ClaimInvalid means a claim is present but is not a recognized role
	ClaimInvalid
	// ClaimValid means the claim names a defined role
	ClaimValid
)

func (s ClaimState) String() string {
	switch s {
	case ClaimAbsent:
		return "absent"
	case ClaimInvalid:
		return "invalid"
	case ClaimValid:
		return "valid"
	default:
		return "unknown"
	}
}

// RoleClaim is the parsed adminRole claim. Role is only set when State is ClaimValid.
type RoleClaim struct {
	State ClaimState
	Role  rbac.Role
	// Raw holds the original string for logging; never use it for decisions.
	Raw string
}

// Valid reports whether the claim names a defined role
func (c RoleClaim) Valid() bool {
	return c.State == ClaimValid
}

// Identity is a resolved caller with a typed admin role claim
type Identity struct {
	UserID    string
	OrgID     string
	OrgRole   string
	AdminRole RoleClaim
}

// OrgRole ranks organization-level membership roles
type OrgRole string

const (
	OrgRoleMember OrgRole = "member"
	OrgRoleAdmin  OrgRole = "admin"
)

var orgRoleRank = map[OrgRole]int{
	OrgRoleMember: 1,
	OrgRoleAdmin:  2,
}

// ParseOrgRole accepts "admin", "member" and their "org:" prefixed forms
func ParseOrgRole(s string) (OrgRole, bool) {
	role := OrgRole(strings.TrimPrefix(s, "org:"))
	if _, ok := orgRoleRank[role]; !ok {
		return "", false
	}
	return role, true
}

// OrgRoleAtLeast reports whether actual ranks at or above min.
// Unrecognized values on either side fail.
func OrgRoleAtLeast(actual string, min OrgRole) bool {
	a, ok := ParseOrgRole(actual)
	if !ok {
		return false
	}
	m, ok := orgRoleRank[min]
	if !ok {
		return false
	}
	return orgRoleRank[a] >= m
}
