package injurycase

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Guard violations reported by Transition.
var (
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrMissingReturnToWorkDetails = errors.New("missing return to work details")
	ErrActorRequired              = errors.New("transition requires an acting user")
)

// TransitionError explains which rule rejected a transition.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
	Err    error
}

// Error implements error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s (%s -> %s): %s", e.Err, e.From, e.To, e.Reason)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// TransitionRequest carries the target status and any details the target needs.
type TransitionRequest struct {
	Target        Status
	DutyType      DutyType
	ReturnDate    Date
	ClinicalNotes string
	ActorID       string
}

// requiresApproval lists targets that stamp approver identity and time.
func requiresApproval(s Status) bool {
	return s == StatusReturnToWork || s == StatusClosed
}

// AvailableFrom returns the statuses reachable from current, in lifecycle order.
// PRE: none
// POST: From RETURN_TO_WORK only CLOSED; from CLOSED nothing; otherwise every other
// status, minus RETURN_TO_WORK and CLOSED while a rehabilitation plan is active
func AvailableFrom(current Status, hasActiveRehabPlan bool) []Status {
	switch current {
	case StatusReturnToWork:
		return []Status{StatusClosed}
	case StatusClosed:
		return []Status{}
	}

	out := make([]Status, 0, len(AllStatuses)-1)
	for _, s := range AllStatuses {
		if s == current {
			continue
		}
		if hasActiveRehabPlan && requiresApproval(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AvailableTransitions returns the statuses a case may move to.
// PRE: none
// POST: Pure; consults only the derived status and the guard predicate
func AvailableTransitions(c Case, hasActiveRehabPlan bool) []Status {
	return AvailableFrom(Derive(c).Status, hasActiveRehabPlan)
}

// Transition validates a status change and returns the annotation to persist.
// The caller writes (status, annotation) back in one atomic update; nothing is
// persisted here and the current case is not modified.
// PRE: now is the current instant in the business time zone
// POST: On success the returned annotation carries req.Target; on failure no annotation is returned
func Transition(c Case, req TransitionRequest, hasActiveRehabPlan bool, now time.Time) (Annotation, error) {
	if strings.TrimSpace(req.ActorID) == "" {
		return Annotation{}, ErrActorRequired
	}

	from := Derive(c).Status
	if reason, ok := checkTarget(from, req.Target, hasActiveRehabPlan); !ok {
		return Annotation{}, &TransitionError{From: from, To: req.Target, Reason: reason, Err: ErrInvalidTransition}
	}

	if req.Target == StatusReturnToWork {
		if reason, ok := checkReturnToWork(req, DateOf(now)); !ok {
			return Annotation{}, &TransitionError{From: from, To: req.Target, Reason: reason, Err: ErrMissingReturnToWorkDetails}
		}
	}

	next := c.Annotation
	next.Status = req.Target
	if req.Target == StatusReturnToWork {
		next.DutyType = req.DutyType
		next.ReturnToWorkDate = req.ReturnDate
	}
	if req.ClinicalNotes != "" {
		next.ClinicalNotes = req.ClinicalNotes
	}
	if requiresApproval(req.Target) {
		next.ApprovedBy = req.ActorID
		next.ApprovedAt = now
	}
	return next, nil
}

// checkTarget explains why target is unavailable from 'from'.
func checkTarget(from, target Status, hasActiveRehabPlan bool) (string, bool) {
	if !target.Valid() {
		return fmt.Sprintf("%q is not a case status", string(target)), false
	}
	if slices.Contains(AvailableFrom(from, hasActiveRehabPlan), target) {
		return "", true
	}
	switch {
	case from == StatusClosed:
		return "case is closed", false
	case from == target:
		return "case is already " + string(from), false
	case from == StatusReturnToWork:
		return "a case that has returned to work can only be closed", false
	case hasActiveRehabPlan && requiresApproval(target):
		return "an active rehabilitation plan references this case", false
	}
	return "transition not allowed", false
}

// checkReturnToWork validates the details RETURN_TO_WORK requires.
func checkReturnToWork(req TransitionRequest, today Date) (string, bool) {
	if !req.DutyType.Valid() {
		return "duty type must be modified or full", false
	}
	if req.ReturnDate.IsZero() {
		return "return date is required", false
	}
	if req.ReturnDate.Before(today) {
		return fmt.Sprintf("return date %s is before today (%s)", req.ReturnDate, today), false
	}
	return "", true
}
