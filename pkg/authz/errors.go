package authz

import (
	"errors"
	"fmt"
)

// Kind classifies why an authorization request was denied
type Kind string

const (
	KindNone                   Kind = ""
	KindNotAuthenticated       Kind = "not_authenticated"
	KindOrganizationMismatch   Kind = "organization_mismatch"
	KindInvalidRole            Kind = "invalid_role"
	KindInsufficientPermission Kind = "insufficient_permission"
)

// Sentinel errors, one per Kind
var (
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrOrganizationMismatch   = errors.New("organization mismatch")
	ErrInvalidRole            = errors.New("invalid or missing admin role")
	ErrInsufficientPermission = errors.New("insufficient permission")
)

// Operator-facing reasons. These are shown to administrators as-is.
const (
	ReasonNotAuthenticated     = "User not authenticated"
	ReasonOrganizationMismatch = "User not authorized for CSN organization"
	ReasonInvalidRole          = "User does not have valid admin role"
	reasonLacksPermission      = "User lacks required permission: %s"
)

// Sentinel returns the sentinel error for k, or nil for KindNone
func (k Kind) Sentinel() error {
	switch k {
	case KindNotAuthenticated:
		return ErrNotAuthenticated
	case KindOrganizationMismatch:
		return ErrOrganizationMismatch
	case KindInvalidRole:
		return ErrInvalidRole
	case KindInsufficientPermission:
		return ErrInsufficientPermission
	default:
		return nil
	}
}

// DeniedError carries a denial's kind and operator-facing reason
type DeniedError struct {
	Kind   Kind
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authorization denied: %s", e.Reason)
}

// Unwrap lets errors.Is match the kind's sentinel
func (e *DeniedError) Unwrap() error {
	return e.Kind.Sentinel()
}
