package worker

import (
	"context"

	domain "casework/internal/domain/worker"
)

// Store persists Worker state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Worker, error)
	Save(ctx context.Context, value domain.Worker) error
	ListByTeam(ctx context.Context, teamID string) ([]domain.Worker, error)
}
