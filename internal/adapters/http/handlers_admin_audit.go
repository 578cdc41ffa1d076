package web

import (
	"net/http"
	"strconv"

	auditStore "casework/internal/adapters/storage/audit"
	auditDomain "casework/internal/domain/audit"
)

// handleAdminAudit lists audit events (GET /api/admin/audit).
// PRE: Request carries an actor
// POST: Returns events newest first, filtered by the query parameters
func (s *server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// Parse query parameters for filtering
	filter := auditStore.Filter{}
	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := q.Get("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if resourceType := q.Get("resource_type"); resourceType != "" {
		filter.ResourceType = &resourceType
	}
	if resourceID := q.Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	if from := q.Get("from"); from != "" {
		filter.From = &from
	}
	if to := q.Get("to"); to != "" {
		filter.To = &to
	}

	// Parse limit, default to 100
	limit := 100
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	events, err := s.deps.Audit.List(ctx, filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
