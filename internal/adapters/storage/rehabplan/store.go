package rehabplan

import (
	"context"

	domain "casework/internal/domain/rehabplan"
)

// Store persists rehabilitation plans and answers the case lifecycle's guard query.
type Store interface {
	Save(ctx context.Context, value domain.Plan) error
	ListByCase(ctx context.Context, caseID string) ([]domain.Plan, error)

	// HasActivePlan reports whether any active plan that has not ended references the case.
	// PRE: caseID is non-empty
	// POST: Returns false for unknown cases
	HasActivePlan(ctx context.Context, caseID string) (bool, error)
}
