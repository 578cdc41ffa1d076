package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	auditStore "casework/internal/adapters/storage/audit"
	"casework/internal/application/orchestrators"
	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/outbox"
	"casework/internal/domain/team"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Step    string `json:"step,omitempty"`
}

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// writeError maps domain and workflow errors onto HTTP statuses.
// Guard violations are business outcomes and carry their reason; anything
// unrecognized is an internal error.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Message: err.Error()}

	var te *injurycase.TransitionError
	if errors.As(err, &te) {
		body.From, body.To, body.Reason = string(te.From), string(te.To), te.Reason
	}
	var ie *orchestrators.IntakeError
	if errors.As(err, &ie) {
		body.Step = string(ie.Step)
	}

	var status int
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, orchestrators.ErrInvalidReport):
		status, body.Error = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, injurycase.ErrActorRequired):
		status, body.Error = http.StatusUnauthorized, "actor_required"
	case errors.Is(err, injurycase.ErrNotFound), errors.Is(err, incident.ErrNotFound),
		errors.Is(err, outbox.ErrNotFound), errors.Is(err, auditStore.ErrNotFound):
		status, body.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, injurycase.ErrDuplicateOpenCase):
		status, body.Error = http.StatusConflict, "duplicate_open_case"
	case errors.Is(err, injurycase.ErrInvalidTransition):
		status, body.Error = http.StatusConflict, "invalid_transition"
	case errors.Is(err, orchestrators.ErrTerminalEntry):
		status, body.Error = http.StatusConflict, "terminal_entry"
	case errors.Is(err, injurycase.ErrMissingReturnToWorkDetails):
		status, body.Error = http.StatusUnprocessableEntity, "missing_return_to_work_details"
	case errors.Is(err, team.ErrNoTeam):
		status, body.Error = http.StatusUnprocessableEntity, "no_team"
	default:
		internalError(w, err)
		return
	}
	writeJSON(w, status, body)
}
