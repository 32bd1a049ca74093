package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidToken is returned when a bearer token fails verification
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenVerifier turns a raw bearer token into a Session
type TokenVerifier interface {
	VerifyToken(ctx context.Context, rawToken string) (*Session, error)
}

// OIDCConfig configures ID-token verification against the identity provider
type OIDCConfig struct {
	IssuerURL string
	// ClientID is checked against the token audience. Leave empty to skip the
	// audience check for providers whose session tokens carry no audience.
	ClientID string
	// JWKSURL skips discovery and fetches signing keys directly
	JWKSURL         string
	SkipIssuerCheck bool

	CacheSize int
	CacheTTL  time.Duration
}

// DefaultOIDCConfig returns cache defaults; issuer and client must be set by the caller
func DefaultOIDCConfig() OIDCConfig {
	return OIDCConfig{
		CacheSize: 1024,
		CacheTTL:  time.Minute,
	}
}

// OIDCVerifier verifies bearer ID tokens and caches the resulting sessions by
// token hash until the earlier of CacheTTL and token expiry. Concurrent
// misses for the same token share one verification.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	cache    *expirable.LRU[string, *Session]
	inflight singleflight.Group
	now      func() time.Time
}

// NewOIDCVerifier discovers the provider (or uses JWKSURL) and builds a verifier
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer URL is required")
	}

	if cfg.JWKSURL != "" {
		keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		return NewOIDCVerifierWithKeySet(keySet, cfg), nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return newOIDCVerifier(provider.Verifier(verifierConfig(cfg)), cfg), nil
}

// NewOIDCVerifierWithKeySet builds a verifier over an explicit key set
func NewOIDCVerifierWithKeySet(keySet oidc.KeySet, cfg OIDCConfig) *OIDCVerifier {
	return newOIDCVerifier(oidc.NewVerifier(cfg.IssuerURL, keySet, verifierConfig(cfg)), cfg)
}

func verifierConfig(cfg OIDCConfig) *oidc.Config {
	return &oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.ClientID == "",
		SkipIssuerCheck:   cfg.SkipIssuerCheck,
	}
}

func newOIDCVerifier(verifier *oidc.IDTokenVerifier, cfg OIDCConfig) *OIDCVerifier {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultOIDCConfig().CacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultOIDCConfig().CacheTTL
	}

	return &OIDCVerifier{
		verifier: verifier,
		cache:    expirable.NewLRU[string, *Session](size, nil, ttl),
		now:      time.Now,
	}
}

// VerifyToken verifies rawToken and returns the session it describes
func (v *OIDCVerifier) VerifyToken(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	key := hashToken(rawToken)
	if session, ok := v.cache.Get(key); ok {
		if session.ExpiresAt.IsZero() || v.now().Before(session.ExpiresAt) {
			return session, nil
		}
		v.cache.Remove(key)
	}

	// The flight is shared, so it must outlive the caller that started it
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := v.inflight.Do(key, func() (interface{}, error) {
		return v.verify(flightCtx, rawToken, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Session), nil
}

func (v *OIDCVerifier) verify(ctx context.Context, rawToken, key string) (*Session, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidToken, err)
	}

	session, err := SessionFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !idToken.Expiry.IsZero() {
		session.ExpiresAt = idToken.Expiry
	}

	v.cache.Add(key, session)
	return session, nil
}

// CachedSessions returns the number of sessions currently cached
func (v *OIDCVerifier) CachedSessions() int {
	return v.cache.Len()
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
