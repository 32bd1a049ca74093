package middleware

import (
	"net/http"

	"github.com/csnsports/csn-admin/pkg/authz"
	"github.com/csnsports/csn-admin/pkg/httputil"
	"github.com/csnsports/csn-admin/pkg/rbac"
)

// RequirePermission rejects requests the authorizer denies for perm.
// Not-authenticated callers get 401; every other denial is 403. The body is
// {"error": "<reason>"}.
func RequirePermission(authorizer *authz.Authorizer, perm rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := authorizer.Authorize(r.Context(), perm)
			if !result.Authorized {
				writeDenied(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose caller does not hold role. The top
// role passes every requirement.
func RequireRole(authorizer *authz.Authorizer, role rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := authorizer.RequireRole(r.Context(), role)
			if !result.Authorized {
				writeDenied(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StatusFor maps a denial kind to an HTTP status
func StatusFor(kind authz.Kind) int {
	switch kind {
	case authz.KindNone:
		return http.StatusOK
	case authz.KindNotAuthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

func writeDenied(w http.ResponseWriter, result authz.Result) {
	httputil.WriteErrorMessage(w, StatusFor(result.Kind), result.Error)
}
