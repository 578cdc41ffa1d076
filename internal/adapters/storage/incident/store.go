package incident

import (
	"context"
	"time"

	domain "casework/internal/domain/incident"
)

// Store persists Incident records. Incidents are append-only.
type Store interface {
	Create(ctx context.Context, value domain.Incident) (domain.Incident, error)
	GetByID(ctx context.Context, id string) (domain.Incident, error)
	ListBySubject(ctx context.Context, subjectID string, filter ListFilter) ([]domain.Incident, error)
}

// ListFilter carries filtering parameters for List operations.
// Zero From/To leave that side of the window open.
type ListFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
