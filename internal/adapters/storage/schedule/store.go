package schedule

import (
	"context"
	"time"

	domain "casework/internal/domain/schedule"
)

// Store persists WorkSchedule state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.WorkSchedule, error)
	Save(ctx context.Context, value domain.WorkSchedule) error
	ListBySubject(ctx context.Context, subjectID string) ([]domain.WorkSchedule, error)

	// DeactivateAll takes every active slot for the subject off the roster.
	// PRE: subjectID is non-empty
	// POST: Returns the number of slots that were active before the call
	DeactivateAll(ctx context.Context, subjectID string, now time.Time) (int, error)
}
