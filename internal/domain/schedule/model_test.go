package schedule_test

import (
	"testing"
	"time"

	"casework/internal/domain/schedule"
)

// TestWorkSchedule_Validate tests validation of WorkSchedule.
func TestWorkSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sched   schedule.WorkSchedule
		wantErr error
	}{
		{
			name:  "valid schedule",
			sched: schedule.WorkSchedule{ID: "1", SubjectID: "w-1", Day: schedule.Monday, StartTime: "07:00", EndTime: "15:30", Active: true},
		},
		{
			name:  "valid overnight shift",
			sched: schedule.WorkSchedule{ID: "2", SubjectID: "w-1", Day: schedule.Saturday, StartTime: "22:00", EndTime: "06:00"},
		},
		{
			name:    "empty subject",
			sched:   schedule.WorkSchedule{ID: "3", Day: schedule.Monday, StartTime: "07:00", EndTime: "15:30"},
			wantErr: schedule.ErrEmptySubjectID,
		},
		{
			name:    "invalid day",
			sched:   schedule.WorkSchedule{ID: "4", SubjectID: "w-1", Day: "funday", StartTime: "07:00", EndTime: "15:30"},
			wantErr: schedule.ErrInvalidDay,
		},
		{
			name:    "empty start time",
			sched:   schedule.WorkSchedule{ID: "5", SubjectID: "w-1", Day: schedule.Monday, EndTime: "15:30"},
			wantErr: schedule.ErrInvalidTime,
		},
		{
			name:    "malformed end time",
			sched:   schedule.WorkSchedule{ID: "6", SubjectID: "w-1", Day: schedule.Monday, StartTime: "07:00", EndTime: "3pm"},
			wantErr: schedule.ErrInvalidTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sched.Validate(); err != tt.wantErr {
				t.Errorf("WorkSchedule.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestWorkSchedule_Deactivate tests that deactivation reports whether anything changed.
func TestWorkSchedule_Deactivate(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	s := schedule.WorkSchedule{ID: "1", SubjectID: "w-1", Day: schedule.Monday, StartTime: "07:00", EndTime: "15:30", Active: true}

	if !s.Deactivate(now) {
		t.Error("expected first deactivation to report a change")
	}
	if s.Active || !s.UpdatedAt.Equal(now) {
		t.Errorf("got Active=%v UpdatedAt=%v", s.Active, s.UpdatedAt)
	}
	if s.Deactivate(now.Add(time.Hour)) {
		t.Error("expected second deactivation to be a no-op")
	}
	if !s.UpdatedAt.Equal(now) {
		t.Error("no-op deactivation must not touch UpdatedAt")
	}
}
