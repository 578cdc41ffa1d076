package schedule

import (
	"errors"
	"strings"
	"time"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// ValidDays contains all valid day values.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Domain errors
var (
	ErrEmptySubjectID = errors.New("schedule must belong to a worker")
	ErrInvalidDay     = errors.New("day must be a valid day of the week")
	ErrInvalidTime    = errors.New("start and end times must be HH:MM")
)

// WorkSchedule is one recurring weekly roster slot for a worker.
// Inactive slots are kept for history; the roster only schedules active ones.
type WorkSchedule struct {
	ID        string
	SubjectID string
	Day       string // monday, tuesday, etc.
	StartTime string // HH:MM format
	EndTime   string // HH:MM format
	Active    bool
	UpdatedAt time.Time
}

// Validate checks if the WorkSchedule has valid data.
// PRE: WorkSchedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *WorkSchedule) Validate() error {
	if strings.TrimSpace(s.SubjectID) == "" {
		return ErrEmptySubjectID
	}
	if !isValidDay(s.Day) {
		return ErrInvalidDay
	}
	if _, err := time.Parse("15:04", s.StartTime); err != nil {
		return ErrInvalidTime
	}
	if _, err := time.Parse("15:04", s.EndTime); err != nil {
		return ErrInvalidTime
	}
	return nil
}

// Deactivate takes the slot off the roster.
// PRE: none
// POST: Active is false; returns true if the slot was active before the call
func (s *WorkSchedule) Deactivate(now time.Time) bool {
	if !s.Active {
		return false
	}
	s.Active = false
	s.UpdatedAt = now
	return true
}

func isValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}
