package api

import (
	"net/http"

	"github.com/csnsports/csn-admin/pkg/authz"
	"github.com/csnsports/csn-admin/pkg/httputil"
	"github.com/csnsports/csn-admin/pkg/rbac"
)

// checkAuthorization reports the caller's decision for ?permission= or
// ?role=. A denial is a normal answer and returns 200; only a malformed
// query is an error.
//
//	GET /api/v1/authz/check?permission=write:content
//	GET /api/v1/authz/check?role=Content%20Manager
func (s *Server) checkAuthorization(w http.ResponseWriter, r *http.Request) {
	rawPerm := httputil.ParseQueryString(r, "permission", "")
	rawRole := httputil.ParseQueryString(r, "role", "")

	if rawPerm != "" && rawRole != "" {
		httputil.WriteBadRequest(w, "permission and role are mutually exclusive")
		return
	}

	var result authz.Result
	switch {
	case rawRole != "":
		role, ok := rbac.ParseRole(rawRole)
		if !ok {
			httputil.WriteBadRequest(w, "unknown role: "+rawRole)
			return
		}
		result = s.authorizer.RequireRole(r.Context(), role)
	default:
		var perm rbac.Permission
		if rawPerm != "" {
			var err error
			perm, err = rbac.ParsePermission(rawPerm)
			if err != nil {
				httputil.WriteBadRequest(w, "malformed permission: "+rawPerm)
				return
			}
		}
		result = s.authorizer.Authorize(r.Context(), perm)
	}

	httputil.WriteSuccess(w, result)
}
