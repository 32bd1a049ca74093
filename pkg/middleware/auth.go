package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/csnsports/csn-admin/pkg/auth"
	"github.com/csnsports/csn-admin/pkg/contextkeys"
)

// Token verification results
const (
	TokenMissing = "missing"
	TokenInvalid = "invalid"
	TokenValid   = "valid"
)

// VerificationRecorder counts token verification results.
// observability.Metrics implements it.
type VerificationRecorder interface {
	RecordTokenVerification(result string)
}

// AuthMiddleware verifies bearer tokens and places the caller's session on
// the request context. It never rejects a request itself: a missing or
// invalid token leaves the context without a session and the authorizer
// produces the not-authenticated decision.
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	logger   logrus.FieldLogger
	recorder VerificationRecorder
}

// NewAuthMiddleware creates a new authentication middleware. recorder may be nil.
func NewAuthMiddleware(verifier auth.TokenVerifier, logger logrus.FieldLogger, recorder VerificationRecorder) *AuthMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
		recorder: recorder,
	}
}

// Authenticate is NewAuthMiddleware(...).Handler in router.Use form
func Authenticate(verifier auth.TokenVerifier, logger logrus.FieldLogger, recorder VerificationRecorder) func(http.Handler) http.Handler {
	return NewAuthMiddleware(verifier, logger, recorder).Handler
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			m.record(TokenMissing)
			if !errors.Is(err, errNoAuthorization) {
				m.logger.WithError(err).Debug("ignoring malformed authorization header")
			}
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			m.record(TokenInvalid)
			m.logger.WithError(err).Debug("bearer token rejected")
			next.ServeHTTP(w, r)
			return
		}

		m.record(TokenValid)
		ctx := auth.WithSession(r.Context(), session)
		ctx = contextkeys.WithUserID(ctx, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) record(result string) {
	if m.recorder != nil {
		m.recorder.RecordTokenVerification(result)
	}
}

var (
	errNoAuthorization = errors.New("no authorization header")
	errMalformedBearer = errors.New("authorization header is not a bearer token")
)

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoAuthorization
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedBearer
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}
