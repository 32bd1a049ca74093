package api

import (
	"net/http"
	"time"

	"github.com/csnsports/csn-admin/pkg/audit"
	"github.com/csnsports/csn-admin/pkg/httputil"
	"github.com/csnsports/csn-admin/pkg/observability"
)

// recordAction accepts an audit entry from the web tier. The caller has
// already passed authorization; the write itself is best-effort so the
// response is 202 regardless of whether a sink accepted it.
func (s *Server) recordAction(w http.ResponseWriter, r *http.Request) {
	var entry audit.Entry
	if !httputil.ParseJSONOrError(w, r, &entry) {
		return
	}

	if !httputil.RequireNonEmpty(w, entry.Action, "action") ||
		!httputil.RequireNonEmpty(w, entry.EntityType, "entityType") ||
		!httputil.RequireNonEmpty(w, entry.EntityID, "entityId") {
		return
	}

	s.auditLogger.LogAction(r.Context(), entry)

	httputil.WriteAccepted(w, map[string]string{"status": "accepted"})
}

// listAuditRecords queries stored audit records, newest first.
//
//	GET /api/v1/audit/records?action=update_game&userId=user_1&since=2024-01-01T00:00:00Z&limit=50&format=csv
func (s *Server) listAuditRecords(w http.ResponseWriter, r *http.Request) {
	if s.auditReader == nil {
		httputil.WriteErrorMessage(w, http.StatusNotImplemented, "audit sink does not support queries")
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	records, err := s.auditReader.Query(r.Context(), filter)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("audit query failed")
		httputil.WriteInternalError(w)
		return
	}

	format := httputil.ParseQueryString(r, "format", audit.FormatJSON)
	data, contentType, err := audit.Export(records, format)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	query := r.URL.Query()

	limit, err := httputil.ParseQueryInt(r, "limit", audit.DefaultQueryLimit)
	if err != nil {
		return audit.Filter{}, err
	}

	filter := audit.Filter{
		Actions:    query["action"],
		UserID:     query.Get("userId"),
		EntityType: query.Get("entityType"),
		EntityID:   query.Get("entityId"),
		Limit:      limit,
	}

	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, err
		}
		filter.Since = &since
	}

	return filter, nil
}
