package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/csnsports/csn-admin/pkg/contextkeys"
)

var (
	// ErrNotAuthenticated is returned when no caller identity can be resolved,
	// including when the identity provider itself fails.
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// ErrNoSession is returned by providers that have no session for the request
	ErrNoSession = errors.New("auth: no session")
)

// IdentityProvider reports the current caller's session. Implementations may fail;
// the Resolver treats every failure as "not authenticated".
type IdentityProvider interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

// ProviderFunc adapts a function to IdentityProvider
type ProviderFunc func(ctx context.Context) (*Session, error)

// CurrentSession calls f(ctx)
func (f ProviderFunc) CurrentSession(ctx context.Context) (*Session, error) {
	return f(ctx)
}

// ContextProvider reads the session stored on the context by the
// authentication middleware.
type ContextProvider struct{}

// CurrentSession returns the session from ctx or ErrNoSession
func (ContextProvider) CurrentSession(ctx context.Context) (*Session, error) {
	session, ok := ctx.Value(contextkeys.SessionKey).(*Session)
	if !ok || session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// WithSession stores session on ctx for ContextProvider
func WithSession(ctx context.Context, session *Session) context.Context {
	return contextkeys.WithSession(ctx, session)
}

// Resolver turns provider sessions into typed identities
type Resolver struct {
	provider IdentityProvider
}

// NewResolver creates a resolver over provider
func NewResolver(provider IdentityProvider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve returns the caller identity. Provider errors, panics, nil sessions and
// sessions without a user ID all yield ErrNotAuthenticated; the underlying cause
// is wrapped for logging.
func (r *Resolver) Resolve(ctx context.Context) (identity *Identity, err error) {
	if r == nil || r.provider == nil {
		return nil, ErrNotAuthenticated
	}

	defer func() {
		if rec := recover(); rec != nil {
			identity = nil
			err = fmt.Errorf("%w: identity provider panic: %v", ErrNotAuthenticated, rec)
		}
	}()

	session, err := r.provider.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if session == nil || session.UserID == "" {
		return nil, ErrNotAuthenticated
	}

	return &Identity{
		UserID:    session.UserID,
		OrgID:     session.OrgID,
		OrgRole:   session.OrgRole,
		AdminRole: ParseAdminRoleClaim(session.Claims),
	}, nil
}
