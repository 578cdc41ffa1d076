package incident_test

import (
	"strings"
	"testing"
	"time"

	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
)

func validIncident() incident.Incident {
	reported := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	return incident.Incident{
		ID:          "inc-1",
		SubjectID:   "w-1",
		Type:        incident.TypeManualHandling,
		OccurredOn:  reported.Add(-2 * time.Hour),
		Description: "Strained back lifting a pallet",
		Severity:    injurycase.SeverityMedium,
		ReportedBy:  "w-1",
		ReportedAt:  reported,
	}
}

// TestIncident_Validate tests the incident record rules.
func TestIncident_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*incident.Incident)
		wantErr error
	}{
		{"valid", func(*incident.Incident) {}, nil},
		{"missing subject", func(i *incident.Incident) { i.SubjectID = " " }, incident.ErrEmptySubjectID},
		{"bad type", func(i *incident.Incident) { i.Type = "fire" }, incident.ErrInvalidType},
		{"empty description", func(i *incident.Incident) { i.Description = "" }, incident.ErrEmptyDescription},
		{"long description", func(i *incident.Incident) { i.Description = strings.Repeat("a", incident.MaxDescriptionLength+1) }, incident.ErrDescriptionTooLong},
		{"long analysis", func(i *incident.Incident) { i.Analysis = strings.Repeat("a", incident.MaxAnalysisLength+1) }, incident.ErrAnalysisTooLong},
		{"no occurrence", func(i *incident.Incident) { i.OccurredOn = time.Time{} }, incident.ErrOccurredOnRequired},
		{"no report time", func(i *incident.Incident) { i.ReportedAt = time.Time{} }, incident.ErrReportedAtRequired},
		{"future occurrence", func(i *incident.Incident) { i.OccurredOn = i.ReportedAt.Add(time.Hour) }, incident.ErrOccurredInFuture},
		{"bad severity", func(i *incident.Incident) { i.Severity = "extreme" }, incident.ErrInvalidSeverity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := validIncident()
			tt.mutate(&i)
			if err := i.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestResolveSeverity tests kind defaults and normalization.
func TestResolveSeverity(t *testing.T) {
	tests := []struct {
		reported string
		kind     injurycase.Kind
		want     string
	}{
		{"", injurycase.KindAccident, injurycase.SeverityHigh},
		{"  ", injurycase.KindInjury, injurycase.SeverityMedium},
		{"", injurycase.KindOther, injurycase.SeverityLow},
		{"HIGH", injurycase.KindOther, injurycase.SeverityHigh},
		{"extreme", injurycase.KindInjury, "extreme"},
	}
	for _, tt := range tests {
		if got := incident.ResolveSeverity(tt.reported, tt.kind); got != tt.want {
			t.Errorf("ResolveSeverity(%q, %s) = %q, want %q", tt.reported, tt.kind, got, tt.want)
		}
	}
}

// TestIncident_IsNear tests the correlation window in both directions.
func TestIncident_IsNear(t *testing.T) {
	i := validIncident()
	window := 24 * time.Hour
	if !i.IsNear(i.OccurredOn.Add(23*time.Hour), window) {
		t.Error("expected incident within a day after to be near")
	}
	if !i.IsNear(i.OccurredOn.Add(-window), window) {
		t.Error("expected window boundary before to be near")
	}
	if i.IsNear(i.OccurredOn.Add(25*time.Hour), window) {
		t.Error("expected incident more than a day away not to be near")
	}
}
