package team

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Domain errors
var (
	ErrEmptyName         = errors.New("team name cannot be empty")
	ErrNameTooLong       = errors.New("team name cannot exceed 100 characters")
	ErrEmptySupervisorID = errors.New("team must have a supervisor")
	ErrNoTeam            = errors.New("worker has no team")
	ErrNotFound          = errors.New("team not found")
)

// Team is a group of workers reporting to one supervisor, optionally with a lead.
type Team struct {
	ID           string
	Name         string
	SupervisorID string
	LeadID       string
}

// Validate checks if the Team has valid data.
// PRE: Team struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name and SupervisorID must not be empty
func (t *Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(t.SupervisorID) == "" {
		return ErrEmptySupervisorID
	}
	return nil
}

// Routing is who hears about a worker's incident.
type Routing struct {
	TeamID       string
	SupervisorID string
	LeadID       string
}

// RoutingFor returns the routing context of t.
func (t *Team) RoutingFor() Routing {
	return Routing{TeamID: t.ID, SupervisorID: t.SupervisorID, LeadID: t.LeadID}
}

// HasDistinctLead reports whether the lead should be notified separately from the supervisor.
// INVARIANT: Routing is not mutated
func (r Routing) HasDistinctLead() bool {
	return r.LeadID != "" && r.LeadID != r.SupervisorID
}
