package worker

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrEmptyName    = errors.New("worker name cannot be empty")
	ErrNameTooLong  = errors.New("worker name cannot exceed 100 characters")
	ErrInvalidEmail = errors.New("worker email must be valid")
	ErrInvalidState = errors.New("status must be 'active' or 'archived'")
	ErrNotFound     = errors.New("worker not found")
)

// Worker is a person who can be the subject of a case or receive its notifications.
// TeamID is empty for workers not yet assigned to a team.
type Worker struct {
	ID     string
	Name   string
	Email  string
	TeamID string
	Status string
}

// Validate checks if the Worker has valid data.
// PRE: Worker struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', Name must not be empty
func (w *Worker) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if len(w.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !strings.Contains(w.Email, "@") {
		return ErrInvalidEmail
	}
	if w.Status != StatusActive && w.Status != StatusArchived {
		return ErrInvalidState
	}
	return nil
}

// IsActive returns true if the worker is currently employed.
// INVARIANT: Status field is not mutated
func (w *Worker) IsActive() bool {
	return w.Status == StatusActive
}
