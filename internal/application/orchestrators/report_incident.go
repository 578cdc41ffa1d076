package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"casework/internal/adapters/media"
	"casework/internal/adapters/notify"
	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/notification"
	"casework/internal/domain/team"
	"casework/internal/telemetry"
)

// ErrInvalidReport wraps report validation failures. Nothing is written when it is returned.
var ErrInvalidReport = errors.New("invalid incident report")

// IntakeStep names one step of the intake workflow.
type IntakeStep string

// Intake steps, in execution order.
const (
	StepEligibility   IntakeStep = "eligibility"
	StepRouting       IntakeStep = "routing"
	StepMedia         IntakeStep = "media"
	StepIncident      IntakeStep = "incident"
	StepCase          IntakeStep = "case"
	StepSchedules     IntakeStep = "schedules"
	StepNotifications IntakeStep = "notifications"
)

// Step outcomes.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// IntakeError reports the required step that stopped the workflow.
type IntakeError struct {
	Step IntakeStep
	Err  error
}

// Error implements error.
func (e *IntakeError) Error() string {
	return fmt.Sprintf("intake %s: %v", e.Step, e.Err)
}

// Unwrap exposes the cause for errors.Is.
func (e *IntakeError) Unwrap() error {
	return e.Err
}

// StepOutcome records what one step did.
type StepOutcome struct {
	Step     IntakeStep `json:"step"`
	Required bool       `json:"required"`
	Outcome  string     `json:"outcome"`
	Error    string     `json:"error,omitempty"`
}

// ReportIncidentInput carries a worker-submitted report.
type ReportIncidentInput struct {
	SubjectID    string
	SubmitterID  string
	Kind         string
	IncidentType string
	OccurredOn   time.Time
	Description  string
	Severity     string // Optional; defaults from Kind
	Analysis     string // Optional pre-computed text analysis
	Photo        *media.Object
}

// ReportIncidentDeps holds dependencies for ReportIncident.
type ReportIncidentDeps struct {
	CaseStore     CaseStore
	IncidentStore IncidentStore
	TeamDirectory TeamDirectory
	Schedules     ScheduleRegistry
	Media         media.Store
	Sink          notify.Sink
	Now           func() time.Time
	GenerateID    func() string
}

// ReportIncidentResult is the aggregate outcome of an intake run.
type ReportIncidentResult struct {
	Case                  injurycase.Case
	Incident              *incident.Incident
	Routing               team.Routing
	PhotoRef              string
	SchedulesDeactivated  int
	NotificationsEnqueued int
	Steps                 []StepOutcome
}

// intakeRun is the state threaded through the steps of one run.
type intakeRun struct {
	input    ReportIncidentInput
	kind     injurycase.Kind
	incident incident.Incident
	deps     ReportIncidentDeps
	now      time.Time
	result   ReportIncidentResult
}

type intakeStep struct {
	name     IntakeStep
	required bool
	// run returns the step outcome; an error with a required step aborts the workflow.
	run func(ctx context.Context, r *intakeRun) (string, error)
}

// intakeSteps run in order. The case write is the last required step; everything
// after it only enriches a case that already exists.
var intakeSteps = []intakeStep{
	{name: StepEligibility, required: true, run: checkEligibility},
	{name: StepRouting, required: true, run: resolveRouting},
	{name: StepMedia, required: false, run: attachMedia},
	{name: StepIncident, required: false, run: createIncident},
	{name: StepCase, required: true, run: createCase},
	{name: StepSchedules, required: false, run: deactivateSchedules},
	{name: StepNotifications, required: false, run: fanOutNotifications},
}

// ExecuteReportIncident converts a report into an incident and a NEW case, then
// deactivates the worker's schedules and notifies the supervisor, lead and submitter.
// PRE: deps are non-nil; input.SubjectID names a worker
// POST: Success iff the case was written; soft step failures are logged and recorded in Steps
// INVARIANT: On a hard failure before the case step, nothing has been written
func ExecuteReportIncident(ctx context.Context, input ReportIncidentInput, deps ReportIncidentDeps) (ReportIncidentResult, error) {
	run, err := newIntakeRun(input, deps)
	if err != nil {
		return ReportIncidentResult{}, err
	}

	ctx, span := telemetry.Tracer("casework/intake").Start(ctx, "intake.report_incident")
	defer span.End()
	span.SetAttributes(attribute.String("casework.subject_id", input.SubjectID))

	for _, step := range intakeSteps {
		outcome, stepErr := runStep(ctx, step, run)
		run.result.Steps = append(run.result.Steps, StepOutcome{
			Step:     step.name,
			Required: step.required,
			Outcome:  outcome,
			Error:    errString(stepErr),
		})
		if stepErr == nil {
			continue
		}
		if step.required {
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, string(step.name))
			return run.result, &IntakeError{Step: step.name, Err: stepErr}
		}
		slog.Warn("intake_step_failed", "step", step.name, "subject_id", input.SubjectID, "case_id", run.result.Case.ID, "error", stepErr.Error())
	}

	slog.Info("intake_completed",
		"case_id", run.result.Case.ID,
		"incident_id", run.result.Case.IncidentID,
		"schedules_deactivated", run.result.SchedulesDeactivated,
		"notifications_enqueued", run.result.NotificationsEnqueued,
	)
	span.SetAttributes(attribute.String("casework.case_id", run.result.Case.ID))
	return run.result, nil
}

func runStep(ctx context.Context, step intakeStep, r *intakeRun) (string, error) {
	ctx, span := telemetry.Tracer("casework/intake").Start(ctx, "intake."+string(step.name))
	defer span.End()

	outcome, err := step.run(ctx, r)
	if err != nil && outcome == "" {
		outcome = OutcomeFailed
	}
	span.SetAttributes(
		attribute.String("casework.intake.step", string(step.name)),
		attribute.Bool("casework.intake.required", step.required),
		attribute.String("casework.intake.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return outcome, err
}

// newIntakeRun validates the report before any step runs.
func newIntakeRun(input ReportIncidentInput, deps ReportIncidentDeps) (*intakeRun, error) {
	if strings.TrimSpace(input.SubjectID) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, injurycase.ErrEmptySubjectID)
	}
	kind, ok := injurycase.ParseKind(input.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, injurycase.ErrInvalidKind)
	}
	now := deps.Now()
	inc := incident.Incident{
		SubjectID:   input.SubjectID,
		Type:        strings.ToLower(strings.TrimSpace(input.IncidentType)),
		OccurredOn:  input.OccurredOn,
		Description: strings.TrimSpace(input.Description),
		Severity:    incident.ResolveSeverity(input.Severity, kind),
		Analysis:    input.Analysis,
		ReportedBy:  input.SubmitterID,
		ReportedAt:  now,
	}
	if err := inc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	return &intakeRun{input: input, kind: kind, incident: inc, deps: deps, now: now}, nil
}

func checkEligibility(ctx context.Context, r *intakeRun) (string, error) {
	existing, found, err := r.deps.CaseStore.FindOpenBySubject(ctx, r.input.SubjectID, injurycase.ClosedStatuses)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("find open case: %w", err)
	}
	if found {
		slog.Info("intake_rejected_duplicate", "subject_id", r.input.SubjectID, "case_id", existing.ID, "status", existing.Status())
		return OutcomeFailed, fmt.Errorf("%w: case %s is %s", injurycase.ErrDuplicateOpenCase, existing.ID, existing.Status())
	}
	return OutcomeOK, nil
}

func resolveRouting(ctx context.Context, r *intakeRun) (string, error) {
	routing, err := r.deps.TeamDirectory.ResolveTeam(ctx, r.input.SubjectID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve team: %w", err)
	}
	if routing.TeamID == "" {
		return OutcomeFailed, team.ErrNoTeam
	}
	r.result.Routing = routing
	return OutcomeOK, nil
}

func attachMedia(ctx context.Context, r *intakeRun) (string, error) {
	if r.input.Photo == nil {
		return OutcomeSkipped, nil
	}
	if err := r.input.Photo.Validate(); err != nil {
		return OutcomeFailed, fmt.Errorf("photo rejected: %w", err)
	}
	if r.deps.Media == nil {
		return OutcomeSkipped, nil
	}
	obj := *r.input.Photo
	obj.SubjectID = r.input.SubjectID
	ref, err := r.deps.Media.Put(ctx, obj)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("store photo: %w", err)
	}
	r.result.PhotoRef = ref
	r.incident.PhotoRef = ref
	return OutcomeOK, nil
}

func createIncident(ctx context.Context, r *intakeRun) (string, error) {
	inc := r.incident
	inc.ID = r.deps.GenerateID()
	saved, err := r.deps.IncidentStore.Create(ctx, inc)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("create incident: %w", err)
	}
	r.result.Incident = &saved
	return OutcomeOK, nil
}

func createCase(ctx context.Context, r *intakeRun) (string, error) {
	incidentID := ""
	if r.result.Incident != nil {
		incidentID = r.result.Incident.ID
	}
	c := injurycase.NewCase(r.deps.GenerateID(), r.input.SubjectID, r.result.Routing.TeamID, r.kind, incidentID, r.now)
	if err := c.Validate(); err != nil {
		return OutcomeFailed, err
	}
	saved, err := r.deps.CaseStore.Create(ctx, c)
	if err != nil {
		if errors.Is(err, injurycase.ErrDuplicateOpenCase) {
			slog.Info("intake_rejected_duplicate", "subject_id", r.input.SubjectID, "race", true)
			return OutcomeFailed, err
		}
		return OutcomeFailed, fmt.Errorf("create case: %w", err)
	}
	r.result.Case = saved
	return OutcomeOK, nil
}

func deactivateSchedules(ctx context.Context, r *intakeRun) (string, error) {
	if r.deps.Schedules == nil {
		return OutcomeSkipped, nil
	}
	n, err := r.deps.Schedules.DeactivateAll(ctx, r.input.SubjectID, r.now)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("deactivate schedules: %w", err)
	}
	r.result.SchedulesDeactivated = n
	return OutcomeOK, nil
}

func fanOutNotifications(ctx context.Context, r *intakeRun) (string, error) {
	if r.deps.Sink == nil {
		return OutcomeSkipped, nil
	}
	batch := notification.ComposeIntake(r.result.Case, r.result.Incident, r.result.Routing, r.input.SubmitterID, r.now, r.deps.GenerateID)
	if len(batch) == 0 {
		return OutcomeSkipped, nil
	}

	var errs []error
	for _, n := range batch {
		if err := r.deps.Sink.Enqueue(ctx, n); err != nil {
			slog.Warn("notification_enqueue_failed", "case_id", n.CaseID, "kind", n.Kind, "recipient_id", n.RecipientID, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", n.Kind, err))
			continue
		}
		r.result.NotificationsEnqueued++
	}
	switch {
	case len(errs) == 0:
		return OutcomeOK, nil
	case r.result.NotificationsEnqueued > 0:
		return OutcomePartial, errors.Join(errs...)
	default:
		return OutcomeFailed, errors.Join(errs...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
