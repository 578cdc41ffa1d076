package projections

import (
	"context"
	"fmt"
	"time"

	incidentStore "casework/internal/adapters/storage/incident"
	domainIncident "casework/internal/domain/incident"
	domainCase "casework/internal/domain/injurycase"
)

// CorrelationWindow is how far an unlinked incident may be from the case open date
// and still be shown as the case's incident.
const CorrelationWindow = 72 * time.Hour

// GetCaseStatusQuery carries query parameters.
type GetCaseStatusQuery struct {
	CaseID string
}

// GetCaseStatusResult carries the query result.
type GetCaseStatusResult struct {
	Case                 domainCase.Case
	Status               domainCase.Status
	Signal               domainCase.Signal
	SignalValue          string
	HasActiveRehabPlan   bool
	AvailableTransitions []domainCase.Status
	Incident             *domainIncident.Incident
	// IncidentCorrelated is true when Incident was matched by subject and date, not by reference.
	IncidentCorrelated bool
	// Discrepancies lists raw flags that disagree with the derived status.
	Discrepancies []string
}

// GetCaseStatusDeps holds dependencies for GetCaseStatus.
type GetCaseStatusDeps struct {
	CaseStore     CaseReader
	RehabPlans    RehabPlanOracle
	IncidentStore IncidentReader // optional: nil skips the incident lookup
}

// QueryGetCaseStatus derives a case's display status and what it may move to.
// PRE: Valid case ID
// POST: Returns the derived status, the signal that decided it, and available transitions
func QueryGetCaseStatus(ctx context.Context, query GetCaseStatusQuery, deps GetCaseStatusDeps) (GetCaseStatusResult, error) {
	c, err := deps.CaseStore.GetByID(ctx, query.CaseID)
	if err != nil {
		return GetCaseStatusResult{}, err
	}

	hasPlan, err := deps.RehabPlans.HasActivePlan(ctx, c.ID)
	if err != nil {
		return GetCaseStatusResult{}, fmt.Errorf("check rehabilitation plans: %w", err)
	}

	d := domainCase.Derive(c)
	result := GetCaseStatusResult{
		Case:                 c,
		Status:               d.Status,
		Signal:               d.Signal,
		SignalValue:          d.Raw,
		HasActiveRehabPlan:   hasPlan,
		AvailableTransitions: domainCase.AvailableFrom(d.Status, hasPlan),
		Discrepancies:        discrepancies(c, d.Status),
	}

	// Incident (optional)
	if deps.IncidentStore != nil {
		result.Incident, result.IncidentCorrelated = findIncident(ctx, c, deps.IncidentStore)
	}
	return result, nil
}

// findIncident returns the linked incident, or the nearest incident for the subject
// within CorrelationWindow of the case open date. Lookup failures yield nil.
func findIncident(ctx context.Context, c domainCase.Case, store IncidentReader) (*domainIncident.Incident, bool) {
	if c.IncidentID != "" {
		inc, err := store.GetByID(ctx, c.IncidentID)
		if err != nil {
			return nil, false
		}
		return &inc, false
	}

	candidates, err := store.ListBySubject(ctx, c.SubjectID, incidentStore.ListFilter{
		From: c.OpenedOn.Add(-CorrelationWindow),
		To:   c.OpenedOn.Add(CorrelationWindow),
	})
	if err != nil {
		return nil, false
	}
	var best *domainIncident.Incident
	var bestGap time.Duration
	for i := range candidates {
		inc := candidates[i]
		if !inc.IsNear(c.OpenedOn, CorrelationWindow) {
			continue
		}
		gap := c.OpenedOn.Sub(inc.OccurredOn)
		if gap < 0 {
			gap = -gap
		}
		if best == nil || gap < bestGap {
			best, bestGap = &inc, gap
		}
	}
	return best, best != nil
}

// discrepancies reports the raw signals that no longer agree with the derived status.
// They are informational; the derived status stays authoritative.
func discrepancies(c domainCase.Case, status domainCase.Status) []string {
	var out []string
	if c.IsActive && status == domainCase.StatusClosed {
		out = append(out, "is_active is set on a closed case")
	}
	if !c.IsActive && status.IsOpen() {
		out = append(out, "is_active is cleared on an open case")
	}
	if c.ClosedOn != nil && status.IsOpen() {
		out = append(out, "closed_on is set on an open case")
	}
	if c.LegacyStatus != "" && c.LegacyStatus != domainCase.CoarseStatus(status) {
		out = append(out, fmt.Sprintf("legacy status %q does not match %s", c.LegacyStatus, status))
	}
	return out
}
