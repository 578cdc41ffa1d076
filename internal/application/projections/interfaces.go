package projections

import (
	"context"

	incidentStore "casework/internal/adapters/storage/incident"
	domainIncident "casework/internal/domain/incident"
	domainCase "casework/internal/domain/injurycase"
)

// CaseReader interface for case queries.
type CaseReader interface {
	GetByID(ctx context.Context, id string) (domainCase.Case, error)
	ListBySubject(ctx context.Context, subjectID string) ([]domainCase.Case, error)
}

// IncidentReader interface for incident queries.
type IncidentReader interface {
	GetByID(ctx context.Context, id string) (domainIncident.Incident, error)
	ListBySubject(ctx context.Context, subjectID string, filter incidentStore.ListFilter) ([]domainIncident.Incident, error)
}

// RehabPlanOracle answers whether an active plan references a case.
type RehabPlanOracle interface {
	HasActivePlan(ctx context.Context, caseID string) (bool, error)
}
