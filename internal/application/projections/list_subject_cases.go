package projections

import (
	"context"
	"time"

	domainCase "casework/internal/domain/injurycase"
)

// ListSubjectCasesQuery carries query parameters.
type ListSubjectCasesQuery struct {
	SubjectID string
	OpenOnly  bool
}

// CaseSummary is one row of a worker's case history.
type CaseSummary struct {
	ID         string
	Kind       domainCase.Kind
	Status     domainCase.Status
	OpenedOn   time.Time
	IncidentID string
}

// ListSubjectCasesDeps holds dependencies for ListSubjectCases.
type ListSubjectCasesDeps struct {
	CaseStore CaseReader
}

// QueryListSubjectCases lists a worker's cases with their derived status, newest first.
// PRE: Valid subject ID
// POST: Returns summaries in store order; OpenOnly keeps cases that block a new intake
func QueryListSubjectCases(ctx context.Context, query ListSubjectCasesQuery, deps ListSubjectCasesDeps) ([]CaseSummary, error) {
	cases, err := deps.CaseStore.ListBySubject(ctx, query.SubjectID)
	if err != nil {
		return nil, err
	}
	out := make([]CaseSummary, 0, len(cases))
	for _, c := range cases {
		status := c.Status()
		if query.OpenOnly && !status.IsOpen() {
			continue
		}
		out = append(out, CaseSummary{
			ID:         c.ID,
			Kind:       c.Kind,
			Status:     status,
			OpenedOn:   c.OpenedOn,
			IncidentID: c.IncidentID,
		})
	}
	return out, nil
}
