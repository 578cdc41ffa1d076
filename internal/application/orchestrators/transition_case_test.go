package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"casework/internal/domain/audit"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/notification"
)

func caseInStatus(id string, s injurycase.Status) injurycase.Case {
	c := injurycase.NewCase(id, "w-1", "team-1", injurycase.KindInjury, "inc-1", fixedTime.AddDate(0, 0, -7))
	c.Annotation.Status = s
	return c
}

type transitionFixture struct {
	cases *mockCaseStore
	plans *mockRehabOracle
	audit *mockAuditRecorder
	sink  *mockSink
}

func newTransitionFixture(cases ...injurycase.Case) *transitionFixture {
	return &transitionFixture{
		cases: newMockCaseStore(cases...),
		plans: &mockRehabOracle{active: map[string]bool{}},
		audit: &mockAuditRecorder{},
		sink:  &mockSink{failFor: map[string]bool{}},
	}
}

func (f *transitionFixture) deps() TransitionCaseDeps {
	return TransitionCaseDeps{
		CaseStore:  f.cases,
		RehabPlans: f.plans,
		Audit:      f.audit,
		Sink:       f.sink,
		Now:        fixedNow,
		GenerateID: sequentialIDs("evt"),
	}
}

// TestExecuteTransitionCase_Simple tests a forward transition with audit and notification.
func TestExecuteTransitionCase_Simple(t *testing.T) {
	f := newTransitionFixture(caseInStatus("case-1", injurycase.StatusNew))

	got, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{
		CaseID: "case-1", Target: "triaged", ActorID: "sup-1",
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status() != injurycase.StatusTriaged {
		t.Errorf("Status = %s, want TRIAGED", got.Status())
	}
	if stored := f.cases.cases["case-1"]; stored.Status() != injurycase.StatusTriaged || f.cases.updates != 1 {
		t.Errorf("stored status = %s after %d updates", stored.Status(), f.cases.updates)
	}

	if len(f.audit.events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(f.audit.events))
	}
	e := f.audit.events[0]
	if e.Action != audit.ActionTransition || e.ResourceID != "case-1" || e.ActorID != "sup-1" {
		t.Errorf("audit event = %+v", e)
	}
	if e.Metadata != `{"from":"NEW","to":"TRIAGED"}` {
		t.Errorf("Metadata = %s", e.Metadata)
	}

	if len(f.sink.sent) != 1 || f.sink.sent[0].Kind != notification.KindCaseTransitioned || f.sink.sent[0].RecipientID != "w-1" {
		t.Errorf("notifications = %+v", f.sink.sent)
	}
}

// TestExecuteTransitionCase_ReturnToWork tests parsing of return to work details.
func TestExecuteTransitionCase_ReturnToWork(t *testing.T) {
	f := newTransitionFixture(caseInStatus("case-1", injurycase.StatusInRehab))

	got, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{
		CaseID:        "case-1",
		Target:        "RETURN_TO_WORK",
		DutyType:      "Modified",
		ReturnDate:    "2026-10-20",
		ClinicalNotes: "no lifting over 10kg",
		ActorID:       "sup-1",
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := got.Annotation
	if a.DutyType != injurycase.DutyModified || a.ReturnToWorkDate.String() != "2026-10-20" {
		t.Errorf("details = %s on %s", a.DutyType, a.ReturnToWorkDate)
	}
	if a.ApprovedBy != "sup-1" || !a.ApprovedAt.Equal(fixedTime) {
		t.Errorf("approval = %s at %v", a.ApprovedBy, a.ApprovedAt)
	}
	if got.LegacyStatus != injurycase.CoarseStatus(injurycase.StatusReturnToWork) {
		t.Errorf("LegacyStatus = %q", got.LegacyStatus)
	}
}

// TestExecuteTransitionCase_Rejections tests that guard failures write nothing.
func TestExecuteTransitionCase_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		from       injurycase.Status
		input      TransitionCaseInput
		activePlan bool
		wantErr    error
	}{
		{
			name:    "missing duty type",
			from:    injurycase.StatusAssessed,
			input:   TransitionCaseInput{Target: "RETURN_TO_WORK", ReturnDate: "2024-01-01", ActorID: "sup-1"},
			wantErr: injurycase.ErrMissingReturnToWorkDetails,
		},
		{
			name:    "return date yesterday",
			from:    injurycase.StatusAssessed,
			input:   TransitionCaseInput{Target: "RETURN_TO_WORK", DutyType: "full", ReturnDate: "2026-10-13", ActorID: "sup-1"},
			wantErr: injurycase.ErrMissingReturnToWorkDetails,
		},
		{
			name:    "unparsable return date",
			from:    injurycase.StatusAssessed,
			input:   TransitionCaseInput{Target: "RETURN_TO_WORK", DutyType: "full", ReturnDate: "next week", ActorID: "sup-1"},
			wantErr: injurycase.ErrMissingReturnToWorkDetails,
		},
		{
			name:       "active plan blocks closure",
			from:       injurycase.StatusInRehab,
			input:      TransitionCaseInput{Target: "CLOSED", ActorID: "sup-1"},
			activePlan: true,
			wantErr:    injurycase.ErrInvalidTransition,
		},
		{
			name:    "closed is terminal",
			from:    injurycase.StatusClosed,
			input:   TransitionCaseInput{Target: "NEW", ActorID: "sup-1"},
			wantErr: injurycase.ErrInvalidTransition,
		},
		{
			name:    "unknown target",
			from:    injurycase.StatusNew,
			input:   TransitionCaseInput{Target: "ON_HOLD", ActorID: "sup-1"},
			wantErr: injurycase.ErrInvalidTransition,
		},
		{
			name:    "no actor",
			from:    injurycase.StatusNew,
			input:   TransitionCaseInput{Target: "TRIAGED"},
			wantErr: injurycase.ErrActorRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransitionFixture(caseInStatus("case-1", tt.from))
			f.plans.active["case-1"] = tt.activePlan
			tt.input.CaseID = "case-1"

			_, err := ExecuteTransitionCase(context.Background(), tt.input, f.deps())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !IsGuardViolation(err) {
				t.Errorf("expected %v to be a guard violation", err)
			}
			if f.cases.updates != 0 || len(f.audit.events) != 0 || len(f.sink.sent) != 0 {
				t.Errorf("expected no writes, got %d updates, %d audit, %d notifications", f.cases.updates, len(f.audit.events), len(f.sink.sent))
			}
		})
	}
}

// TestExecuteTransitionCase_TodayInBusinessZone tests that "today" follows the configured location.
func TestExecuteTransitionCase_TodayInBusinessZone(t *testing.T) {
	// 12:30 UTC on the 14th is 01:30 on the 15th at UTC+13.
	lateUTC := time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC)
	input := TransitionCaseInput{
		CaseID: "case-1", Target: "RETURN_TO_WORK", DutyType: "full", ReturnDate: "2026-10-14", ActorID: "sup-1",
	}

	f := newTransitionFixture(caseInStatus("case-1", injurycase.StatusInRehab))
	deps := f.deps()
	deps.Now = func() time.Time { return lateUTC }
	deps.Location = time.FixedZone("NZDT", 13*60*60)
	if _, err := ExecuteTransitionCase(context.Background(), input, deps); !errors.Is(err, injurycase.ErrMissingReturnToWorkDetails) {
		t.Errorf("err = %v, want ErrMissingReturnToWorkDetails", err)
	}

	// The same instant is still the 14th in UTC, so the date is accepted.
	f = newTransitionFixture(caseInStatus("case-1", injurycase.StatusInRehab))
	deps = f.deps()
	deps.Now = func() time.Time { return lateUTC }
	if _, err := ExecuteTransitionCase(context.Background(), input, deps); err != nil {
		t.Errorf("UTC: unexpected error %v", err)
	}
}

// TestExecuteTransitionCase_DependencyFailures tests that store failures are not guard violations.
func TestExecuteTransitionCase_DependencyFailures(t *testing.T) {
	f := newTransitionFixture(caseInStatus("case-1", injurycase.StatusNew))

	if _, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{CaseID: "missing", Target: "TRIAGED", ActorID: "sup-1"}, f.deps()); !errors.Is(err, injurycase.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	f.plans.err = errUnavailable
	_, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{CaseID: "case-1", Target: "TRIAGED", ActorID: "sup-1"}, f.deps())
	if !errors.Is(err, errUnavailable) || IsGuardViolation(err) {
		t.Errorf("err = %v, want wrapped dependency failure", err)
	}

	f.plans.err = nil
	f.cases.updateErr = errUnavailable
	if _, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{CaseID: "case-1", Target: "TRIAGED", ActorID: "sup-1"}, f.deps()); !errors.Is(err, errUnavailable) {
		t.Errorf("err = %v, want update failure", err)
	}
	if len(f.audit.events) != 0 {
		t.Error("expected no audit event when the update fails")
	}
}

// TestExecuteTransitionCase_SoftSideEffects tests that audit and notification failures are tolerated.
func TestExecuteTransitionCase_SoftSideEffects(t *testing.T) {
	f := newTransitionFixture(caseInStatus("case-1", injurycase.StatusReturnToWork))
	f.audit.err = errUnavailable
	f.sink.failAll = true

	got, err := ExecuteTransitionCase(context.Background(), TransitionCaseInput{CaseID: "case-1", Target: "CLOSED", ActorID: "lead-1"}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status() != injurycase.StatusClosed || got.Annotation.ApprovedBy != "lead-1" {
		t.Errorf("got %s approved by %s", got.Status(), got.Annotation.ApprovedBy)
	}
}
