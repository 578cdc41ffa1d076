package team_test

import (
	"strings"
	"testing"

	"casework/internal/domain/team"
)

// TestTeam_Validate tests validation of Team.
func TestTeam_Validate(t *testing.T) {
	tests := []struct {
		name    string
		team    team.Team
		wantErr error
	}{
		{"valid", team.Team{ID: "t-1", Name: "Warehouse", SupervisorID: "sup-1"}, nil},
		{"valid with lead", team.Team{ID: "t-1", Name: "Warehouse", SupervisorID: "sup-1", LeadID: "lead-1"}, nil},
		{"blank name", team.Team{ID: "t-1", Name: "  ", SupervisorID: "sup-1"}, team.ErrEmptyName},
		{"long name", team.Team{ID: "t-1", Name: strings.Repeat("x", 101), SupervisorID: "sup-1"}, team.ErrNameTooLong},
		{"no supervisor", team.Team{ID: "t-1", Name: "Warehouse"}, team.ErrEmptySupervisorID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.team.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRouting_HasDistinctLead tests lead deduplication.
func TestRouting_HasDistinctLead(t *testing.T) {
	tests := []struct {
		name string
		r    team.Routing
		want bool
	}{
		{"no lead", team.Routing{SupervisorID: "sup-1"}, false},
		{"lead is supervisor", team.Routing{SupervisorID: "sup-1", LeadID: "sup-1"}, false},
		{"distinct lead", team.Routing{SupervisorID: "sup-1", LeadID: "lead-1"}, true},
	}
	for _, tt := range tests {
		if got := tt.r.HasDistinctLead(); got != tt.want {
			t.Errorf("%s: HasDistinctLead() = %v, want %v", tt.name, got, tt.want)
		}
	}
	tm := team.Team{ID: "t-1", Name: "Yard", SupervisorID: "sup-1", LeadID: "lead-1"}
	if got := tm.RoutingFor(); got != (team.Routing{TeamID: "t-1", SupervisorID: "sup-1", LeadID: "lead-1"}) {
		t.Errorf("RoutingFor() = %+v", got)
	}
}
