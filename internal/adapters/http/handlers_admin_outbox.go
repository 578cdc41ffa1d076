package web

import (
	"net/http"
	"strconv"

	domain "casework/internal/domain/outbox"
)

type outboxEntryView struct {
	ID              string `json:"id"`
	ActionType      string `json:"action_type"`
	Status          string `json:"status"`
	Attempts        int    `json:"attempts"`
	MaxAttempts     int    `json:"max_attempts"`
	LastAttemptedAt string `json:"last_attempted_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	ExternalID      string `json:"external_id,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

func newOutboxEntryView(e domain.Entry) outboxEntryView {
	v := outboxEntryView{
		ID:           e.ID,
		ActionType:   e.ActionType,
		Status:       e.Status,
		Attempts:     e.Attempts,
		MaxAttempts:  e.MaxAttempts,
		CreatedAt:    e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ExternalID:   e.ExternalID,
		ErrorMessage: e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		v.LastAttemptedAt = e.LastAttemptedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return v
}

// handleAdminOutboxList lists delivery entries (GET /api/admin/outbox?status=failed|pending).
// Payloads are omitted; they carry notification bodies.
func (s *server) handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var (
		entries []domain.Entry
		err     error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "", domain.StatusFailed:
		entries, err = s.deps.Outbox.ListFailed(ctx, limit)
	case domain.StatusPending:
		entries, err = s.deps.Outbox.ListPending(ctx, limit)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "status must be failed or pending"})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]outboxEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newOutboxEntryView(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAdminOutboxAction retries or abandons one entry (POST /api/admin/outbox/{id}/{retry|abandon}).
func (s *server) handleAdminOutboxAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID := r.PathValue("id")

	var err error
	switch r.PathValue("action") {
	case "retry":
		err = s.deps.OutboxProcessor.ProcessSingle(ctx, entryID)
	case "abandon":
		err = s.deps.OutboxProcessor.AbandonEntry(ctx, entryID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "unknown action"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.deps.Outbox.GetByID(ctx, entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutboxEntryView(entry))
}
