package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"casework/internal/adapters/http/middleware"
	"casework/internal/adapters/media"
	"casework/internal/application/orchestrators"
	"casework/internal/domain/injurycase"
)

// maxReportBytes bounds a report body; a base64 photo at media.MaxObjectSize fits.
const maxReportBytes = 16 << 20

type photoPayload struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 in JSON
}

type reportIncidentRequest struct {
	SubjectID    string        `json:"subject_id"`
	Kind         string        `json:"kind"`
	IncidentType string        `json:"incident_type"`
	OccurredOn   string        `json:"occurred_on"` // YYYY-MM-DD or RFC 3339
	Description  string        `json:"description"`
	Severity     string        `json:"severity,omitempty"`
	Analysis     string        `json:"analysis,omitempty"`
	Photo        *photoPayload `json:"photo,omitempty"`
}

type reportIncidentResponse struct {
	Case                  caseView                    `json:"case"`
	Incident              *incidentView               `json:"incident,omitempty"`
	PhotoRef              string                      `json:"photo_ref,omitempty"`
	SchedulesDeactivated  int                         `json:"schedules_deactivated"`
	NotificationsEnqueued int                         `json:"notifications_enqueued"`
	Steps                 []orchestrators.StepOutcome `json:"steps"`
}

// handleReportIncident runs the intake workflow (POST /api/incidents).
// PRE: Request carries an actor; the actor is recorded as the submitter
// POST: 201 with the new case and per-step outcomes, or a mapped error
func (s *server) handleReportIncident(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, injurycase.ErrActorRequired)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)
	var req reportIncidentRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	occurredOn, err := parseOccurredOn(req.OccurredOn, s.deps.Location)
	if err != nil {
		writeError(w, err)
		return
	}

	input := orchestrators.ReportIncidentInput{
		SubjectID:    req.SubjectID,
		SubmitterID:  actorID,
		Kind:         req.Kind,
		IncidentType: req.IncidentType,
		OccurredOn:   occurredOn,
		Description:  req.Description,
		Severity:     req.Severity,
		Analysis:     req.Analysis,
	}
	if req.Photo != nil {
		input.Photo = &media.Object{
			Data:        req.Photo.Data,
			ContentType: req.Photo.ContentType,
			SubjectID:   req.SubjectID,
		}
	}

	result, err := orchestrators.ExecuteReportIncident(r.Context(), input, orchestrators.ReportIncidentDeps{
		CaseStore:     s.deps.Cases,
		IncidentStore: s.deps.Incidents,
		TeamDirectory: s.deps.Teams,
		Schedules:     s.deps.Schedules,
		Media:         s.deps.Media,
		Sink:          s.deps.Sink,
		Now:           s.deps.Now,
		GenerateID:    s.deps.GenerateID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportIncidentResponse{
		Case:                  newCaseView(result.Case),
		Incident:              newIncidentView(result.Incident),
		PhotoRef:              result.PhotoRef,
		SchedulesDeactivated:  result.SchedulesDeactivated,
		NotificationsEnqueued: result.NotificationsEnqueued,
		Steps:                 result.Steps,
	})
}

// parseOccurredOn accepts a calendar date in loc or a full RFC 3339 timestamp.
// An empty value is left zero for validation to reject.
func parseOccurredOn(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: occurred_on %q is not a date", errBadRequest, raw)
	}
	return t, nil
}
