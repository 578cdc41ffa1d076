package rehabplan_test

import (
	"testing"
	"time"

	"casework/internal/domain/rehabplan"
)

// TestPlan_IsActive tests which plans block case closure.
func TestPlan_IsActive(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 14)

	tests := []struct {
		name string
		plan rehabplan.Plan
		want bool
	}{
		{"active open ended", rehabplan.Plan{Status: rehabplan.StatusActive}, true},
		{"active ends later", rehabplan.Plan{Status: rehabplan.StatusActive, EndsOn: &future}, true},
		{"active already ended", rehabplan.Plan{Status: rehabplan.StatusActive, EndsOn: &past}, false},
		{"draft", rehabplan.Plan{Status: rehabplan.StatusDraft}, false},
		{"completed", rehabplan.Plan{Status: rehabplan.StatusCompleted}, false},
		{"cancelled", rehabplan.Plan{Status: rehabplan.StatusCancelled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPlan_Validate tests validation of Plan.
func TestPlan_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		plan    rehabplan.Plan
		wantErr error
	}{
		{"valid", rehabplan.Plan{CaseID: "c-1", Status: rehabplan.StatusActive, StartsOn: now}, nil},
		{"no case", rehabplan.Plan{Status: rehabplan.StatusActive, StartsOn: now}, rehabplan.ErrEmptyCaseID},
		{"bad status", rehabplan.Plan{CaseID: "c-1", Status: "paused", StartsOn: now}, rehabplan.ErrInvalidStatus},
		{"no start", rehabplan.Plan{CaseID: "c-1", Status: rehabplan.StatusDraft}, rehabplan.ErrStartRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.plan.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
