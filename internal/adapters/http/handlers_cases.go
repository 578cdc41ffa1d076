package web

import (
	"net/http"
	"strconv"

	"casework/internal/adapters/http/middleware"
	"casework/internal/application/orchestrators"
	"casework/internal/application/projections"
	"casework/internal/domain/injurycase"
)

type caseStatusResponse struct {
	Case                 caseView      `json:"case"`
	Status               string        `json:"status"`
	Signal               string        `json:"signal"`
	SignalValue          string        `json:"signal_value,omitempty"`
	HasActiveRehabPlan   bool          `json:"has_active_rehab_plan"`
	AvailableTransitions []string      `json:"available_transitions"`
	Incident             *incidentView `json:"incident,omitempty"`
	IncidentCorrelated   bool          `json:"incident_correlated,omitempty"`
	Discrepancies        []string      `json:"discrepancies,omitempty"`
}

type transitionsResponse struct {
	CaseID               string   `json:"case_id"`
	Status               string   `json:"status"`
	HasActiveRehabPlan   bool     `json:"has_active_rehab_plan"`
	AvailableTransitions []string `json:"available_transitions"`
}

type transitionRequest struct {
	Target        string `json:"target"`
	DutyType      string `json:"return_to_work_duty_type,omitempty"`
	ReturnDate    string `json:"return_to_work_date,omitempty"`
	ClinicalNotes string `json:"clinical_notes,omitempty"`
}

type caseSummaryView struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	OpenedOn   string `json:"opened_on"`
	IncidentID string `json:"incident_id,omitempty"`
}

// handleGetCase returns the derived status view (GET /api/cases/{id}).
func (s *server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetCaseStatus(r.Context(), projections.GetCaseStatusQuery{CaseID: r.PathValue("id")}, projections.GetCaseStatusDeps{
		CaseStore:     s.deps.Cases,
		RehabPlans:    s.deps.RehabPlans,
		IncidentStore: s.deps.Incidents,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caseStatusResponse{
		Case:                 newCaseView(result.Case),
		Status:               string(result.Status),
		Signal:               string(result.Signal),
		SignalValue:          result.SignalValue,
		HasActiveRehabPlan:   result.HasActiveRehabPlan,
		AvailableTransitions: statusStrings(result.AvailableTransitions),
		Incident:             newIncidentView(result.Incident),
		IncidentCorrelated:   result.IncidentCorrelated,
		Discrepancies:        result.Discrepancies,
	})
}

// handleListTransitions returns the statuses a case may move to (GET /api/cases/{id}/transitions).
func (s *server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetCaseStatus(r.Context(), projections.GetCaseStatusQuery{CaseID: r.PathValue("id")}, projections.GetCaseStatusDeps{
		CaseStore:  s.deps.Cases,
		RehabPlans: s.deps.RehabPlans,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionsResponse{
		CaseID:               result.Case.ID,
		Status:               string(result.Status),
		HasActiveRehabPlan:   result.HasActiveRehabPlan,
		AvailableTransitions: statusStrings(result.AvailableTransitions),
	})
}

// handleTransitionCase moves a case to a new status (POST /api/cases/{id}/transitions).
// PRE: Request carries an actor; the actor is stamped as approver where the target needs one
// POST: 200 with the updated case; guard violations map to 409 or 422 and write nothing
func (s *server) handleTransitionCase(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, injurycase.ErrActorRequired)
		return
	}
	var req transitionRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := orchestrators.ExecuteTransitionCase(r.Context(), orchestrators.TransitionCaseInput{
		CaseID:        r.PathValue("id"),
		Target:        req.Target,
		DutyType:      req.DutyType,
		ReturnDate:    req.ReturnDate,
		ClinicalNotes: req.ClinicalNotes,
		ActorID:       actorID,
	}, orchestrators.TransitionCaseDeps{
		CaseStore:  s.deps.Cases,
		RehabPlans: s.deps.RehabPlans,
		Audit:      s.deps.Audit,
		Sink:       s.deps.Sink,
		Now:        s.deps.Now,
		GenerateID: s.deps.GenerateID,
		Location:   s.deps.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCaseView(c))
}

// handleListWorkerCases lists a worker's case history (GET /api/workers/{id}/cases?open=true).
func (s *server) handleListWorkerCases(w http.ResponseWriter, r *http.Request) {
	openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))
	cases, err := projections.QueryListSubjectCases(r.Context(), projections.ListSubjectCasesQuery{
		SubjectID: r.PathValue("id"),
		OpenOnly:  openOnly,
	}, projections.ListSubjectCasesDeps{CaseStore: s.deps.Cases})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]caseSummaryView, 0, len(cases))
	for _, c := range cases {
		out = append(out, caseSummaryView{
			ID:         c.ID,
			Kind:       string(c.Kind),
			Status:     string(c.Status),
			OpenedOn:   c.OpenedOn.Format("2006-01-02"),
			IncidentID: c.IncidentID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
