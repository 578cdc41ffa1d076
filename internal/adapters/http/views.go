package web

import (
	"time"

	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
)

type annotationView struct {
	Status           string     `json:"status,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	DutyType         string     `json:"return_to_work_duty_type,omitempty"`
	ReturnToWorkDate string     `json:"return_to_work_date,omitempty"`
	ClinicalNotes    string     `json:"clinical_notes,omitempty"`
}

type caseView struct {
	ID         string         `json:"id"`
	SubjectID  string         `json:"subject_id"`
	TeamID     string         `json:"team_id"`
	Kind       string         `json:"kind"`
	IncidentID string         `json:"incident_id,omitempty"`
	Status     string         `json:"status"`
	OpenedOn   time.Time      `json:"opened_on"`
	ClosedAt   *time.Time     `json:"closed_at,omitempty"`
	Annotation annotationView `json:"annotation"`
}

func newCaseView(c injurycase.Case) caseView {
	a := c.Annotation
	av := annotationView{
		Status:        string(a.Status),
		ApprovedBy:    a.ApprovedBy,
		DutyType:      string(a.DutyType),
		ClinicalNotes: a.ClinicalNotes,
	}
	if !a.ApprovedAt.IsZero() {
		at := a.ApprovedAt
		av.ApprovedAt = &at
	}
	if !a.ReturnToWorkDate.IsZero() {
		av.ReturnToWorkDate = a.ReturnToWorkDate.String()
	}
	return caseView{
		ID:         c.ID,
		SubjectID:  c.SubjectID,
		TeamID:     c.TeamID,
		Kind:       string(c.Kind),
		IncidentID: c.IncidentID,
		Status:     string(c.Status()),
		OpenedOn:   c.OpenedOn,
		ClosedAt:   c.ClosedAt,
		Annotation: av,
	}
}

type incidentView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OccurredOn  time.Time `json:"occurred_on"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	PhotoRef    string    `json:"photo_ref,omitempty"`
	ReportedBy  string    `json:"reported_by"`
	ReportedAt  time.Time `json:"reported_at"`
}

func newIncidentView(i *incident.Incident) *incidentView {
	if i == nil {
		return nil
	}
	return &incidentView{
		ID:          i.ID,
		Type:        i.Type,
		OccurredOn:  i.OccurredOn,
		Description: i.Description,
		Severity:    i.Severity,
		PhotoRef:    i.PhotoRef,
		ReportedBy:  i.ReportedBy,
		ReportedAt:  i.ReportedAt,
	}
}

func statusStrings(in []injurycase.Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
