package worker_test

import (
	"testing"

	"casework/internal/domain/worker"
)

// TestWorker_Validate tests validation of Worker.
func TestWorker_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       worker.Worker
		wantErr error
	}{
		{"valid", worker.Worker{ID: "w-1", Name: "Aroha", Email: "aroha@example.com", TeamID: "t-1", Status: worker.StatusActive}, nil},
		{"valid without team", worker.Worker{ID: "w-2", Name: "Sam", Email: "sam@example.com", Status: worker.StatusActive}, nil},
		{"empty name", worker.Worker{ID: "w-3", Email: "x@example.com", Status: worker.StatusActive}, worker.ErrEmptyName},
		{"bad email", worker.Worker{ID: "w-4", Name: "Lee", Email: "lee", Status: worker.StatusActive}, worker.ErrInvalidEmail},
		{"bad status", worker.Worker{ID: "w-5", Name: "Lee", Email: "lee@example.com", Status: "on_leave"}, worker.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
