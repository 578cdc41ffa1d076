package team

import (
	"context"

	domain "casework/internal/domain/team"
)

// Store persists Team state and resolves notification routing.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Team, error)
	Save(ctx context.Context, value domain.Team) error

	// ResolveTeam returns the routing context for a worker.
	// PRE: subjectID is non-empty
	// POST: Returns ErrNoTeam when the worker is unknown or has no team
	ResolveTeam(ctx context.Context, subjectID string) (domain.Routing, error)
}
