package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	auditStore "casework/internal/adapters/storage/audit"
	incidentStore "casework/internal/adapters/storage/incident"
	caseStore "casework/internal/adapters/storage/injurycase"
	rehabStore "casework/internal/adapters/storage/rehabplan"
	"casework/internal/application/orchestrators"
	"casework/internal/application/projections"
	"casework/internal/domain/injurycase"
)

func (c *cli) caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Inspect and move cases",
	}
	cmd.AddCommand(c.caseStatusCmd(), c.caseTransitionsCmd(), c.caseTransitionCmd(), c.caseListCmd())
	return cmd
}

func (c *cli) caseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <case-id>",
		Short: "Show a case's derived status and the signal that decided it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := projections.QueryGetCaseStatus(cmd.Context(), projections.GetCaseStatusQuery{CaseID: args[0]}, projections.GetCaseStatusDeps{
				CaseStore:     caseStore.NewSQLiteStore(db),
				RehabPlans:    rehabStore.NewSQLiteStore(db, c.now),
				IncidentStore: incidentStore.NewSQLiteStore(db),
			})
			if err != nil {
				return err
			}
			view := map[string]any{
				"case_id":               res.Case.ID,
				"subject_id":            res.Case.SubjectID,
				"status":                res.Status,
				"signal":                res.Signal,
				"signal_value":          res.SignalValue,
				"has_active_rehab_plan": res.HasActiveRehabPlan,
				"available_transitions": res.AvailableTransitions,
				"discrepancies":         res.Discrepancies,
			}
			if res.Incident != nil {
				view["incident_id"] = res.Incident.ID
				view["incident_correlated"] = res.IncidentCorrelated
			}
			return c.emit(view, func(w io.Writer) {
				fmt.Fprintf(w, "case      %s (worker %s)\n", res.Case.ID, res.Case.SubjectID)
				fmt.Fprintf(w, "status    %s (from %s %q)\n", res.Status, res.Signal, res.SignalValue)
				fmt.Fprintf(w, "next      %s\n", joinStatuses(res.AvailableTransitions))
				if res.HasActiveRehabPlan {
					fmt.Fprintln(w, "rehab     active plan blocks RETURN_TO_WORK and CLOSED")
				}
				if res.Incident != nil {
					how := "linked"
					if res.IncidentCorrelated {
						how = "matched by date"
					}
					fmt.Fprintf(w, "incident  %s (%s, %s)\n", res.Incident.ID, res.Incident.Type, how)
				}
				for _, d := range res.Discrepancies {
					fmt.Fprintf(w, "warning   %s\n", d)
				}
			})
		},
	}
}

func (c *cli) caseTransitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions <case-id>",
		Short: "List the statuses a case may move to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := projections.QueryGetCaseStatus(cmd.Context(), projections.GetCaseStatusQuery{CaseID: args[0]}, projections.GetCaseStatusDeps{
				CaseStore:  caseStore.NewSQLiteStore(db),
				RehabPlans: rehabStore.NewSQLiteStore(db, c.now),
			})
			if err != nil {
				return err
			}
			return c.emit(res.AvailableTransitions, func(w io.Writer) {
				for _, s := range res.AvailableTransitions {
					fmt.Fprintln(w, s)
				}
			})
		},
	}
}

func (c *cli) caseTransitionCmd() *cobra.Command {
	var input orchestrators.TransitionCaseInput
	cmd := &cobra.Command{
		Use:   "transition <case-id> <target>",
		Short: "Move a case to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			loc, err := c.cfg.Location()
			if err != nil {
				return err
			}
			input.CaseID, input.Target = args[0], args[1]
			updated, err := orchestrators.ExecuteTransitionCase(cmd.Context(), input, orchestrators.TransitionCaseDeps{
				CaseStore:  caseStore.NewSQLiteStore(db),
				RehabPlans: rehabStore.NewSQLiteStore(db, c.now),
				Audit:      auditStore.NewSQLiteStore(db),
				Now:        c.now,
				GenerateID: c.genID,
				Location:   loc,
			})
			if err != nil {
				return err
			}
			return c.emit(map[string]any{"case_id": updated.ID, "status": updated.Status()}, func(w io.Writer) {
				fmt.Fprintf(w, "%s is now %s\n", updated.ID, updated.Status())
			})
		},
	}
	cmd.Flags().StringVar(&input.ActorID, "actor", "", "acting user ID (required)")
	cmd.Flags().StringVar(&input.DutyType, "duty", "", "return to work duty type: modified or full")
	cmd.Flags().StringVar(&input.ReturnDate, "return-date", "", "return to work date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input.ClinicalNotes, "notes", "", "clinical notes")
	cmd.MarkFlagRequired("actor")
	return cmd
}

func (c *cli) caseListCmd() *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "list <worker-id>",
		Short: "List a worker's cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			cases, err := projections.QueryListSubjectCases(cmd.Context(), projections.ListSubjectCasesQuery{SubjectID: args[0], OpenOnly: openOnly},
				projections.ListSubjectCasesDeps{CaseStore: caseStore.NewSQLiteStore(db)})
			if err != nil {
				return err
			}
			return c.emit(cases, func(w io.Writer) {
				for _, cs := range cases {
					fmt.Fprintf(w, "%s  %-14s  %-13s  %s\n", cs.ID, cs.Status, cs.Kind, cs.OpenedOn.Format("2006-01-02"))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "only cases that block a new report")
	return cmd
}

func joinStatuses(in []injurycase.Status) string {
	if len(in) == 0 {
		return "(none; closed is terminal)"
	}
	parts := make([]string, len(in))
	for i, s := range in {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
