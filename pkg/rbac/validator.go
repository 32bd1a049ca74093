package rbac

// ParseRole matches s exactly against the defined roles.
// There is no case folding or trimming: "content manager" is not a role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	if _, ok := roleIndex[role]; !ok {
		return "", false
	}
	return role, true
}

// IsValid reports whether r is one of the defined roles
func (r Role) IsValid() bool {
	_, ok := roleIndex[r]
	return ok
}

// ValidateRole decides whether the caller's role satisfies required.
// An empty required role means any recognized role passes. Otherwise the
// caller passes on an exact match or when holding TopRole.
func ValidateRole(actual string, required Role) bool {
	role, ok := ParseRole(actual)
	if !ok {
		return false
	}
	if required == "" {
		return true
	}
	return role == required || role == TopRole
}
