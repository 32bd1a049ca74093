package rbac

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/csnsports/csn-admin/pkg/httputil"
)

// Handlers exposes the read-only role table over HTTP
type Handlers struct{}

// NewHandlers creates new RBAC handlers
func NewHandlers() *Handlers {
	return &Handlers{}
}

// RegisterRoutes registers all RBAC routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/roles", h.ListRoles).Methods(http.MethodGet)
	router.HandleFunc("/roles/{role}/permissions", h.GetRolePermissions).Methods(http.MethodGet)
}

// ListRoles returns every built-in role with its permissions
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"roles":    BuiltInRoles(),
		"top_role": TopRole,
	})
}

// GetRolePermissions returns the permission set of a single role.
// The role path segment must match exactly, e.g. "Content%20Manager".
func (h *Handlers) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := ParseRole(mux.Vars(r)["role"])
	if !ok {
		httputil.WriteNotFoundError(w, "unknown role")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"role":        role,
		"permissions": PermissionsFor(role).List(),
	})
}
