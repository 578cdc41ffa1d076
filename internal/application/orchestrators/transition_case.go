package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"casework/internal/adapters/notify"
	"casework/internal/domain/audit"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/notification"
	"casework/internal/telemetry"
)

// TransitionCaseInput carries a status change request.
type TransitionCaseInput struct {
	CaseID        string
	Target        string
	DutyType      string // RETURN_TO_WORK only: modified or full
	ReturnDate    string // RETURN_TO_WORK only: YYYY-MM-DD
	ClinicalNotes string
	ActorID       string
}

// TransitionCaseDeps holds dependencies for TransitionCase.
type TransitionCaseDeps struct {
	CaseStore  CaseStore
	RehabPlans RehabPlanOracle
	Audit      AuditRecorder // Optional
	Sink       notify.Sink   // Optional; notifies the case subject
	Now        func() time.Time
	GenerateID func() string
	// Location decides which calendar day "today" is for return dates; UTC when nil.
	Location *time.Location
}

// ExecuteTransitionCase moves a case to a new status.
// PRE: input.ActorID identifies the acting user
// POST: On success the case's status and annotation were written in one update and the
// updated case is returned; on any guard failure nothing is written
func ExecuteTransitionCase(ctx context.Context, input TransitionCaseInput, deps TransitionCaseDeps) (injurycase.Case, error) {
	ctx, span := telemetry.Tracer("casework/lifecycle").Start(ctx, "lifecycle.transition_case")
	defer span.End()
	span.SetAttributes(
		attribute.String("casework.case_id", input.CaseID),
		attribute.String("casework.target", input.Target),
	)

	c, err := deps.CaseStore.GetByID(ctx, input.CaseID)
	if err != nil {
		return injurycase.Case{}, fmt.Errorf("load case: %w", err)
	}

	hasPlan, err := deps.RehabPlans.HasActivePlan(ctx, c.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rehab plan lookup failed")
		return injurycase.Case{}, fmt.Errorf("check rehabilitation plans: %w", err)
	}

	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now().In(loc)
	from := c.Status()

	next, err := injurycase.Transition(c, buildTransitionRequest(input), hasPlan, now)
	if err != nil {
		slog.Info("case_transition_rejected", "case_id", c.ID, "from", from, "to", input.Target, "actor_id", input.ActorID, "reason", err.Error())
		span.SetAttributes(attribute.String("casework.rejected", err.Error()))
		return injurycase.Case{}, err
	}

	if err := deps.CaseStore.UpdateStatus(ctx, c.ID, next.Status, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return injurycase.Case{}, fmt.Errorf("update case status: %w", err)
	}
	c.Annotation = next
	c.LegacyStatus = injurycase.CoarseStatus(next.Status)

	slog.Info("case_transitioned", "case_id", c.ID, "from", from, "to", next.Status, "actor_id", input.ActorID)
	recordTransitionAudit(ctx, deps, c, from, input.ActorID, now)
	notifyTransition(ctx, deps, c, from, now)
	return c, nil
}

// buildTransitionRequest parses raw input. Unparsable duty types and dates are passed
// through as invalid values so the lifecycle reports them as missing details.
func buildTransitionRequest(input TransitionCaseInput) injurycase.TransitionRequest {
	raw := strings.TrimSpace(input.Target)
	target, ok := injurycase.ParseStatus(strings.ToUpper(raw))
	if !ok {
		target = injurycase.Status(raw)
	}
	duty, _ := injurycase.ParseDutyType(input.DutyType)
	var date injurycase.Date
	if strings.TrimSpace(input.ReturnDate) != "" {
		if d, err := injurycase.ParseDate(input.ReturnDate); err == nil {
			date = d
		}
	}
	return injurycase.TransitionRequest{
		Target:        target,
		DutyType:      duty,
		ReturnDate:    date,
		ClinicalNotes: strings.TrimSpace(input.ClinicalNotes),
		ActorID:       strings.TrimSpace(input.ActorID),
	}
}

func recordTransitionAudit(ctx context.Context, deps TransitionCaseDeps, c injurycase.Case, from injurycase.Status, actorID string, now time.Time) {
	if deps.Audit == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{"from": string(from), "to": string(c.Annotation.Status)})
	e := audit.NewEvent(deps.GenerateID(), actorID, audit.CategoryCase, audit.ActionTransition, now).
		WithResource(audit.ResourceCase, c.ID).
		WithDescription(fmt.Sprintf("case moved from %s to %s", from, c.Annotation.Status)).
		WithMetadata(string(meta))
	if c.Annotation.Status == injurycase.StatusClosed {
		e = e.WithSeverity(audit.SeverityWarning)
	}
	if err := deps.Audit.Save(ctx, e); err != nil {
		slog.Warn("audit_save_failed", "case_id", c.ID, "error", err.Error())
	}
}

func notifyTransition(ctx context.Context, deps TransitionCaseDeps, c injurycase.Case, from injurycase.Status, now time.Time) {
	if deps.Sink == nil {
		return
	}
	n := notification.ComposeTransition(c, from, c.Annotation.Status, now, deps.GenerateID)
	if err := deps.Sink.Enqueue(ctx, n); err != nil {
		slog.Warn("notification_enqueue_failed", "case_id", c.ID, "kind", n.Kind, "error", err.Error())
	}
}

// IsGuardViolation reports whether err is an expected business rule rejection.
func IsGuardViolation(err error) bool {
	return errors.Is(err, injurycase.ErrInvalidTransition) ||
		errors.Is(err, injurycase.ErrMissingReturnToWorkDetails) ||
		errors.Is(err, injurycase.ErrDuplicateOpenCase) ||
		errors.Is(err, injurycase.ErrActorRequired)
}
