package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnsports/csn-admin/pkg/rbac"
)

func TestParseAdminRoleClaim(t *testing.T) {
	tests := []struct {
		name      string
		claims    map[string]interface{}
		wantState ClaimState
		wantRole  rbac.Role
	}{
		{
			name:      "nil claims",
			claims:    nil,
			wantState: ClaimAbsent,
		},
		{
			name:      "no metadata",
			claims:    map[string]interface{}{"sub": "user_1"},
			wantState: ClaimAbsent,
		},
		{
			name:      "metadata without adminRole",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{}},
			wantState: ClaimAbsent,
		},
		{
			name:      "empty adminRole",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": ""}},
			wantState: ClaimAbsent,
		},
		{
			name:      "valid role",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": "Content Manager"}},
			wantState: ClaimValid,
			wantRole:  rbac.RoleContentManager,
		},
		{
			name:      "top role",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": "System Administrator"}},
			wantState: ClaimValid,
			wantRole:  rbac.RoleSystemAdministrator,
		},
		{
			name:      "unknown role",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": "invalid-role"}},
			wantState: ClaimInvalid,
		},
		{
			name:      "wrong case",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": "content manager"}},
			wantState: ClaimInvalid,
		},
		{
			name:      "non-string role",
			claims:    map[string]interface{}{"metadata": map[string]interface{}{"adminRole": 42.0}},
			wantState: ClaimInvalid,
		},
		{
			name:      "metadata is not an object",
			claims:    map[string]interface{}{"metadata": "System Administrator"},
			wantState: ClaimInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := ParseAdminRoleClaim(tt.claims)
			assert.Equal(t, tt.wantState, claim.State)
			assert.Equal(t, tt.wantRole, claim.Role)
			assert.Equal(t, tt.wantState == ClaimValid, claim.Valid())
		})
	}
}

func TestSessionFromClaims(t *testing.T) {
	t.Run("maps claims", func(t *testing.T) {
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		claims := map[string]interface{}{
			"sub":      "user_123",
			"org_id":   "test-csn-org",
			"org_role": "org:admin",
			"exp":      float64(exp.Unix()),
			"metadata": map[string]interface{}{"adminRole": "Content Manager"},
		}

		session, err := SessionFromClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, "user_123", session.UserID)
		assert.Equal(t, "test-csn-org", session.OrgID)
		assert.Equal(t, "org:admin", session.OrgRole)
		assert.True(t, exp.Equal(session.ExpiresAt))
		assert.Equal(t, claims, session.Claims)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := SessionFromClaims(map[string]interface{}{"org_id": "test-csn-org"})
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("non-string org fields are ignored", func(t *testing.T) {
		session, err := SessionFromClaims(map[string]interface{}{"sub": "u", "org_id": 7.0})
		require.NoError(t, err)
		assert.Empty(t, session.OrgID)
	})
}

func TestClaimState_String(t *testing.T) {
	assert.Equal(t, "absent", ClaimAbsent.String())
	assert.Equal(t, "invalid", ClaimInvalid.String())
	assert.Equal(t, "valid", ClaimValid.String())
	assert.Equal(t, "unknown", ClaimState(99).String())
}

func TestOrgRoleAtLeast(t *testing.T) {
	tests := []struct {
		actual string
		min    OrgRole
		want   bool
	}{
		{"admin", OrgRoleAdmin, true},
		{"org:admin", OrgRoleAdmin, true},
		{"member", OrgRoleAdmin, false},
		{"org:member", OrgRoleMember, true},
		{"admin", OrgRoleMember, true},
		{"", OrgRoleMember, false},
		{"owner", OrgRoleMember, false},
		{"Admin", OrgRoleAdmin, false},
		{"admin", OrgRole("owner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.actual+">="+string(tt.min), func(t *testing.T) {
			assert.Equal(t, tt.want, OrgRoleAtLeast(tt.actual, tt.min))
		})
	}
}
