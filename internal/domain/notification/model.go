package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"casework/internal/domain/incident"
	"casework/internal/domain/injurycase"
	"casework/internal/domain/team"
)

// Kind identifies who a notification is for and why.
type Kind string

// Notification kinds produced by incident intake.
const (
	KindSupervisorAlert       Kind = "supervisor_alert"
	KindLeadAlert             Kind = "lead_alert"
	KindSubmitterConfirmation Kind = "submitter_confirmation"
	KindCaseTransitioned      Kind = "case_transitioned"
)

// MaxSummaryLength bounds how much of the incident description is quoted in a notification.
const MaxSummaryLength = 280

// Domain errors
var (
	ErrEmptyRecipient = errors.New("notification recipient is required")
	ErrEmptySubject   = errors.New("notification subject is required")
	ErrEmptyCaseID    = errors.New("notification must reference a case")
)

// Notification is a message to one recipient about a case.
// Body is markdown; delivery adapters render it for their channel.
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	CaseID      string    `json:"case_id"`
	RecipientID string    `json:"recipient_id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks that the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if strings.TrimSpace(n.RecipientID) == "" {
		return ErrEmptyRecipient
	}
	if strings.TrimSpace(n.Subject) == "" {
		return ErrEmptySubject
	}
	if n.CaseID == "" {
		return ErrEmptyCaseID
	}
	return nil
}

// ComposeIntake builds the fan-out for a newly opened case: the supervisor, the team lead
// when set and distinct from the supervisor, and a confirmation to the submitter.
// inc may be nil when the incident record could not be written.
// PRE: c is a persisted case; genID returns unique IDs
// POST: Returns between zero and three notifications, supervisor first
func ComposeIntake(c injurycase.Case, inc *incident.Incident, r team.Routing, submitterID string, now time.Time, genID func() string) []Notification {
	var out []Notification
	alert := alertBody(c, inc)
	subject := fmt.Sprintf("New %s case reported", kindLabel(c.Kind))

	if r.SupervisorID != "" {
		out = append(out, Notification{
			ID:          genID(),
			Kind:        KindSupervisorAlert,
			CaseID:      c.ID,
			RecipientID: r.SupervisorID,
			Subject:     subject,
			Body:        alert,
			CreatedAt:   now,
		})
	}
	if r.HasDistinctLead() {
		out = append(out, Notification{
			ID:          genID(),
			Kind:        KindLeadAlert,
			CaseID:      c.ID,
			RecipientID: r.LeadID,
			Subject:     subject,
			Body:        alert,
			CreatedAt:   now,
		})
	}
	if submitterID != "" {
		out = append(out, Notification{
			ID:          genID(),
			Kind:        KindSubmitterConfirmation,
			CaseID:      c.ID,
			RecipientID: submitterID,
			Subject:     "Your report has been received",
			Body:        confirmationBody(c, r),
			CreatedAt:   now,
		})
	}
	return out
}

// ComposeTransition builds the notice sent to the case subject when its status changes.
// PRE: next is the status just persisted
// POST: Returns a single notification addressed to the case subject
func ComposeTransition(c injurycase.Case, from, next injurycase.Status, now time.Time, genID func() string) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Your case **%s** moved from `%s` to `%s`.\n", c.ID, from, next)
	if next == injurycase.StatusReturnToWork {
		a := c.Annotation
		fmt.Fprintf(&b, "\n- Duty type: %s\n- Return date: %s\n", a.DutyType, a.ReturnToWorkDate)
	}
	return Notification{
		ID:          genID(),
		Kind:        KindCaseTransitioned,
		CaseID:      c.ID,
		RecipientID: c.SubjectID,
		Subject:     fmt.Sprintf("Case update: %s", next),
		Body:        b.String(),
		CreatedAt:   now,
	}
}

func alertBody(c injurycase.Case, inc *incident.Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new **%s** case was opened for worker `%s`.\n\n", kindLabel(c.Kind), c.SubjectID)
	fmt.Fprintf(&b, "- Case: %s\n", c.ID)
	fmt.Fprintf(&b, "- Opened: %s\n", c.OpenedOn.Format("2006-01-02"))
	if inc == nil {
		b.WriteString("\n_The incident record could not be saved; follow up with the worker for details._\n")
		return b.String()
	}
	fmt.Fprintf(&b, "- Severity: %s\n", inc.Severity)
	fmt.Fprintf(&b, "- Type: %s\n", strings.ReplaceAll(inc.Type, "_", " "))
	fmt.Fprintf(&b, "\n> %s\n", summarize(inc.Description))
	return b.String()
}

func confirmationBody(c injurycase.Case, r team.Routing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for reporting. Case **%s** has been opened", c.ID)
	if r.SupervisorID != "" {
		b.WriteString(" and your supervisor has been told")
	}
	b.WriteString(".\n")
	return b.String()
}

func kindLabel(k injurycase.Kind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > MaxSummaryLength {
		return string(r[:MaxSummaryLength]) + "…"
	}
	return s
}
