package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnsports/csn-admin/pkg/rbac"
)

const testIssuer = "https://clerk.csn.test"

type testSigner struct {
	key    *rsa.PrivateKey
	signer jose.Signer
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	return &testSigner{key: key, signer: signer}
}

func (s *testSigner) sign(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	jws, err := s.signer.Sign(payload)
	require.NoError(t, err)

	raw, err := jws.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func (s *testSigner) verifier(cfg OIDCConfig) *OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&s.key.PublicKey}}
	return NewOIDCVerifierWithKeySet(keySet, cfg)
}

func validClaims() map[string]interface{} {
	return map[string]interface{}{
		"iss":      testIssuer,
		"sub":      "user_123",
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
		"org_id":   "test-csn-org",
		"org_role": "org:admin",
		"metadata": map[string]interface{}{"adminRole": "Content Manager"},
	}
}

func TestOIDCVerifier_VerifyToken(t *testing.T) {
	signer := newTestSigner(t)

	t.Run("valid token", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
		raw := signer.sign(t, validClaims())

		session, err := v.VerifyToken(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "user_123", session.UserID)
		assert.Equal(t, "test-csn-org", session.OrgID)
		assert.Equal(t, "org:admin", session.OrgRole)
		assert.False(t, session.ExpiresAt.IsZero())
		assert.Equal(t, rbac.RoleContentManager, ParseAdminRoleClaim(session.Claims).Role)
	})

	t.Run("cached after first verification", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
		raw := signer.sign(t, validClaims())

		first, err := v.VerifyToken(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, 1, v.CachedSessions())

		second, err := v.VerifyToken(context.Background(), raw)
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("expired cache entry is re-verified", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
		raw := signer.sign(t, validClaims())

		first, err := v.VerifyToken(context.Background(), raw)
		require.NoError(t, err)

		v.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = v.VerifyToken(context.Background(), raw)
		// the token itself is still valid for the real clock
		require.NoError(t, err)
		assert.Equal(t, 1, v.CachedSessions())
		second, _ := v.cache.Get(hashToken(raw))
		assert.NotSame(t, first, second)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: "https://other.example"})
		raw := signer.sign(t, validClaims())

		_, err := v.VerifyToken(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Equal(t, 0, v.CachedSessions())
	})

	t.Run("audience checked when client ID set", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer, ClientID: "csn-admin"})
		raw := signer.sign(t, validClaims())

		_, err := v.VerifyToken(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()

		_, err := v.VerifyToken(context.Background(), signer.sign(t, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed by another key", func(t *testing.T) {
		other := newTestSigner(t)
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})

		_, err := v.VerifyToken(context.Background(), other.sign(t, validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
		claims := validClaims()
		delete(claims, "sub")

		_, err := v.VerifyToken(context.Background(), signer.sign(t, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage and empty tokens", func(t *testing.T) {
		v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})

		_, err := v.VerifyToken(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = v.VerifyToken(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestOIDCVerifier_ConcurrentVerification(t *testing.T) {
	signer := newTestSigner(t)
	v := signer.verifier(OIDCConfig{IssuerURL: testIssuer})
	raw := signer.sign(t, validClaims())

	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	errs := make([]error, len(sessions))
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], errs[i] = v.VerifyToken(context.Background(), raw)
		}(i)
	}
	wg.Wait()

	for i := range sessions {
		require.NoError(t, errs[i])
		assert.Equal(t, "user_123", sessions[i].UserID)
	}
	assert.Equal(t, 1, v.CachedSessions())
}

// cancelAwareKeySet fails verification when the context is done, like a
// remote key set that has to fetch keys would
type cancelAwareKeySet struct {
	oidc.KeySet
}

func (k cancelAwareKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.KeySet.VerifySignature(ctx, jwt)
}

func TestOIDCVerifier_CanceledCallerDoesNotFailFlight(t *testing.T) {
	signer := newTestSigner(t)
	keySet := cancelAwareKeySet{KeySet: &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&signer.key.PublicKey}}}
	v := NewOIDCVerifierWithKeySet(keySet, OIDCConfig{IssuerURL: testIssuer})
	raw := signer.sign(t, validClaims())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := v.VerifyToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "user_123", session.UserID)
	assert.Equal(t, 1, v.CachedSessions())

	session, err = v.VerifyToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user_123", session.UserID)
}

func TestNewOIDCVerifier_RequiresIssuer(t *testing.T) {
	_, err := NewOIDCVerifier(context.Background(), OIDCConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer URL is required")
}
