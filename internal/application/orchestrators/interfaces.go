package orchestrators

import (
	"context"
	"time"

	"casework/internal/domain/audit"
	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/team"
	"casework/internal/domain/worker"
)

// CaseStore is the case persistence the lifecycle operations need.
type CaseStore interface {
	FindOpenBySubject(ctx context.Context, subjectID string, statusNotIn []injurycase.Status) (injurycase.Case, bool, error)
	Create(ctx context.Context, c injurycase.Case) (injurycase.Case, error)
	GetByID(ctx context.Context, id string) (injurycase.Case, error)
	UpdateStatus(ctx context.Context, id string, status injurycase.Status, a injurycase.Annotation) error
}

// IncidentStore writes the factual incident record.
type IncidentStore interface {
	Create(ctx context.Context, i incident.Incident) (incident.Incident, error)
}

// TeamDirectory resolves who is notified about a worker's case.
type TeamDirectory interface {
	ResolveTeam(ctx context.Context, subjectID string) (team.Routing, error)
}

// ScheduleRegistry deactivates a worker's rostered slots.
type ScheduleRegistry interface {
	DeactivateAll(ctx context.Context, subjectID string, now time.Time) (int, error)
}

// RehabPlanOracle answers the lifecycle guard query.
type RehabPlanOracle interface {
	HasActivePlan(ctx context.Context, caseID string) (bool, error)
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e audit.Event) error
}

// WorkerDirectory looks up notification recipients.
type WorkerDirectory interface {
	GetByID(ctx context.Context, id string) (worker.Worker, error)
}
