package auth

import (
	"context"

	"github.com/csnsports/csn-admin/pkg/rbac"
)

// DevBypassUserID is the user ID reported by the development bypass provider
const DevBypassUserID = "dev-bypass"

// DevBypassProvider reports a fixed System Administrator session for every call.
// It is only constructed when configuration explicitly enables the bypass, and
// configuration validation refuses that in production.
type DevBypassProvider struct {
	session Session
}

// NewDevBypassProvider creates a bypass provider for the given organization
func NewDevBypassProvider(orgID string) *DevBypassProvider {
	return &DevBypassProvider{
		session: Session{
			UserID:  DevBypassUserID,
			OrgID:   orgID,
			OrgRole: string(OrgRoleAdmin),
		},
	}
}

// CurrentSession returns a fresh copy of the bypass session
func (p *DevBypassProvider) CurrentSession(ctx context.Context) (*Session, error) {
	s := p.session
	s.Claims = map[string]interface{}{
		ClaimSubject: s.UserID,
		ClaimMetadata: map[string]interface{}{
			ClaimAdminRole: string(rbac.TopRole),
		},
	}
	return &s, nil
}
