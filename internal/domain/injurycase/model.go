package injurycase

import (
	"errors"
	"strings"
	"time"
)

// Kind classifies what the case is about.
type Kind string

// Case kinds.
const (
	KindInjury       Kind = "injury"
	KindAccident     Kind = "accident"
	KindMedicalLeave Kind = "medical_leave"
	KindOther        Kind = "other"
)

// Severity constants shared with incident records.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Domain errors
var (
	ErrEmptySubjectID    = errors.New("case must be associated with a worker")
	ErrEmptyTeamID       = errors.New("case must carry a team reference")
	ErrInvalidKind       = errors.New("case kind must be injury, accident, medical_leave, or other")
	ErrOpenedOnRequired  = errors.New("case opened date must be set")
	ErrDuplicateOpenCase = errors.New("worker already has an open case")
	ErrNotFound          = errors.New("case not found")
)

// ParseKind normalizes a raw kind string.
// PRE: none
// POST: Returns the kind and true when recognized; accepts "medical-leave" as a spelling of medical_leave
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case KindInjury, KindAccident, KindMedicalLeave, KindOther:
		return k, true
	}
	return "", false
}

// DefaultSeverity returns the severity assumed for a case kind when the report carries none.
func (k Kind) DefaultSeverity() string {
	switch k {
	case KindAccident:
		return SeverityHigh
	case KindInjury:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Case is the lifecycle record for a worker injury or incident.
// IsActive, ClosedOn and ClosedAt are raw signals written by different code paths
// and may disagree with the derived status; Derive is the source of truth.
type Case struct {
	ID           string
	SubjectID    string
	TeamID       string
	Kind         Kind
	IncidentID   string
	OpenedOn     time.Time
	ClosedOn     *time.Time
	IsActive     bool
	LegacyStatus string
	Annotation   Annotation
	ClosedAt     *time.Time
	CreatedAt    time.Time
}

// NewCase builds a freshly opened case in status NEW.
// PRE: id, subjectID and teamID are non-empty
// POST: Returns an active case whose annotation carries StatusNew
func NewCase(id, subjectID, teamID string, kind Kind, incidentID string, now time.Time) Case {
	return Case{
		ID:           id,
		SubjectID:    subjectID,
		TeamID:       teamID,
		Kind:         kind,
		IncidentID:   incidentID,
		OpenedOn:     now,
		IsActive:     true,
		LegacyStatus: CoarseStatus(StatusNew),
		Annotation:   Annotation{Status: StatusNew},
		CreatedAt:    now,
	}
}

// Validate checks if the Case has valid data.
// PRE: Case struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: SubjectID and TeamID must not be empty
func (c *Case) Validate() error {
	if strings.TrimSpace(c.SubjectID) == "" {
		return ErrEmptySubjectID
	}
	if strings.TrimSpace(c.TeamID) == "" {
		return ErrEmptyTeamID
	}
	if _, ok := ParseKind(string(c.Kind)); !ok {
		return ErrInvalidKind
	}
	if c.OpenedOn.IsZero() {
		return ErrOpenedOnRequired
	}
	return nil
}

// Status returns the derived canonical status.
func (c Case) Status() Status {
	return Derive(c).Status
}
