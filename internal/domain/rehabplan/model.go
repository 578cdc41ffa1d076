package rehabplan

import (
	"errors"
	"strings"
	"time"
)

// Status constants for a rehabilitation plan.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Domain errors
var (
	ErrEmptyCaseID   = errors.New("rehabilitation plan must reference a case")
	ErrInvalidStatus = errors.New("rehabilitation plan status is not recognized")
	ErrStartRequired = errors.New("rehabilitation plan start date must be set")
)

// Plan is a structured rehabilitation programme attached to a case.
// Plans are owned by clinicians; the case lifecycle only reads whether one is active.
type Plan struct {
	ID        string
	CaseID    string
	Status    string
	StartsOn  time.Time
	EndsOn    *time.Time
	CreatedAt time.Time
}

// Validate checks if the Plan has valid data.
// PRE: Plan struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.CaseID) == "" {
		return ErrEmptyCaseID
	}
	switch p.Status {
	case StatusDraft, StatusActive, StatusCompleted, StatusCancelled:
	default:
		return ErrInvalidStatus
	}
	if p.StartsOn.IsZero() {
		return ErrStartRequired
	}
	return nil
}

// IsActive reports whether the plan still blocks its case from closing.
// A draft plan does not block; an active plan blocks until it ends.
// INVARIANT: Plan is not mutated
func (p *Plan) IsActive(now time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	return p.EndsOn == nil || now.Before(*p.EndsOn)
}
