package injurycase

import (
	"context"

	domain "casework/internal/domain/injurycase"
)

// Store persists Case state.
type Store interface {
	// FindOpenBySubject returns a case for the subject whose derived status is not in statusNotIn.
	// PRE: subjectID is non-empty
	// POST: Returns the most recently created match and true, or false when none exists
	FindOpenBySubject(ctx context.Context, subjectID string, statusNotIn []domain.Status) (domain.Case, bool, error)

	// Create inserts a new case.
	// PRE: c has been validated
	// POST: Case is persisted; ErrDuplicateOpenCase if the subject already holds an open case
	Create(ctx context.Context, c domain.Case) (domain.Case, error)

	// GetByID retrieves a case by its ID.
	// PRE: id is non-empty
	// POST: Returns the case or ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Case, error)

	// ListBySubject returns every case for a subject, newest first.
	ListBySubject(ctx context.Context, subjectID string) ([]domain.Case, error)

	// UpdateStatus writes the status and annotation in one statement.
	// PRE: a was produced by the lifecycle state machine
	// POST: Annotation, coarse status and open-case slot are updated atomically, or ErrNotFound
	UpdateStatus(ctx context.Context, id string, status domain.Status, a domain.Annotation) error
}
