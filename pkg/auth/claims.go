package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/csnsports/csn-admin/pkg/rbac"
)

// Claim names used by the identity provider's session token
const (
	ClaimSubject   = "sub"
	ClaimOrgID     = "org_id"
	ClaimOrgRole   = "org_role"
	ClaimMetadata  = "metadata"
	ClaimAdminRole = "adminRole"
	ClaimExpiry    = "exp"
)

// ErrMissingSubject is returned when a token carries no subject
var ErrMissingSubject = errors.New("auth: token has no subject")

// ParseAdminRoleClaim reads metadata.adminRole from session claims and
// converts it into a tagged RoleClaim. Anything other than an exact role
// string is ClaimInvalid.
func ParseAdminRoleClaim(claims map[string]interface{}) RoleClaim {
	if claims == nil {
		return RoleClaim{State: ClaimAbsent}
	}
	rawMeta, ok := claims[ClaimMetadata]
	if !ok || rawMeta == nil {
		return RoleClaim{State: ClaimAbsent}
	}
	meta, ok := rawMeta.(map[string]interface{})
	if !ok {
		return RoleClaim{State: ClaimInvalid, Raw: fmt.Sprint(rawMeta)}
	}
	rawRole, ok := meta[ClaimAdminRole]
	if !ok || rawRole == nil {
		return RoleClaim{State: ClaimAbsent}
	}
	s, ok := rawRole.(string)
	if !ok {
		return RoleClaim{State: ClaimInvalid, Raw: fmt.Sprint(rawRole)}
	}
	if s == "" {
		return RoleClaim{State: ClaimAbsent}
	}
	role, ok := rbac.ParseRole(s)
	if !ok {
		return RoleClaim{State: ClaimInvalid, Raw: s}
	}
	return RoleClaim{State: ClaimValid, Role: role, Raw: s}
}

// SessionFromClaims maps verified token claims into a Session
func SessionFromClaims(claims map[string]interface{}) (*Session, error) {
	sub := stringClaim(claims, ClaimSubject)
	if sub == "" {
		return nil, ErrMissingSubject
	}

	session := &Session{
		UserID:  sub,
		OrgID:   stringClaim(claims, ClaimOrgID),
		OrgRole: stringClaim(claims, ClaimOrgRole),
		Claims:  claims,
	}

	// JSON numbers decode as float64
	if exp, ok := claims[ClaimExpiry].(float64); ok && exp > 0 {
		session.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}

	return session, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
