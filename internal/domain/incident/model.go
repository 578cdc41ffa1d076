package incident

import (
	"errors"
	"strings"
	"time"

	"casework/internal/domain/injurycase"
)

// Max length constants for user-editable fields.
const (
	MaxDescriptionLength = 4000
	MaxAnalysisLength    = 8000
)

// Incident type constants
const (
	TypeSlipTripFall   = "slip_trip_fall"
	TypeManualHandling = "manual_handling"
	TypeStruckBy       = "struck_by"
	TypeVehicle        = "vehicle"
	TypeExposure       = "exposure"
	TypeIllness        = "illness"
	TypeOther          = "other"
)

// ValidTypes contains all valid incident types.
var ValidTypes = []string{TypeSlipTripFall, TypeManualHandling, TypeStruckBy, TypeVehicle, TypeExposure, TypeIllness, TypeOther}

// Domain errors
var (
	ErrEmptySubjectID     = errors.New("incident must be associated with a worker")
	ErrInvalidType        = errors.New("incident type is not recognized")
	ErrEmptyDescription   = errors.New("incident description cannot be empty")
	ErrDescriptionTooLong = errors.New("incident description cannot exceed 4000 characters")
	ErrAnalysisTooLong    = errors.New("incident analysis cannot exceed 8000 characters")
	ErrOccurredOnRequired = errors.New("incident date must be set")
	ErrOccurredInFuture   = errors.New("incident date cannot be in the future")
	ErrInvalidSeverity    = errors.New("severity must be high, medium, or low")
	ErrReportedAtRequired = errors.New("reported time must be set")
	ErrNotFound           = errors.New("incident not found")
)

// Incident is the factual record of what happened. It is never modified after creation.
type Incident struct {
	ID          string
	SubjectID   string
	Type        string
	OccurredOn  time.Time
	Description string
	Severity    string
	// PhotoRef points at the attached media object, if any.
	PhotoRef string
	// Analysis is an opaque pre-computed text analysis supplied by the caller.
	Analysis   string
	ReportedBy string
	ReportedAt time.Time
}

// Validate checks if the Incident has valid data.
// PRE: Incident struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: SubjectID, Type and Description must not be empty
func (i *Incident) Validate() error {
	if strings.TrimSpace(i.SubjectID) == "" {
		return ErrEmptySubjectID
	}
	if !IsValidType(i.Type) {
		return ErrInvalidType
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if len(i.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(i.Analysis) > MaxAnalysisLength {
		return ErrAnalysisTooLong
	}
	if i.OccurredOn.IsZero() {
		return ErrOccurredOnRequired
	}
	if i.ReportedAt.IsZero() {
		return ErrReportedAtRequired
	}
	if i.OccurredOn.After(i.ReportedAt) {
		return ErrOccurredInFuture
	}
	if !IsValidSeverity(i.Severity) {
		return ErrInvalidSeverity
	}
	return nil
}

// ResolveSeverity returns the reported severity, or the kind's default when none was given.
// PRE: none
// POST: Returns a lower-cased severity; unknown values are returned as-is for Validate to reject
func ResolveSeverity(reported string, kind injurycase.Kind) string {
	s := strings.ToLower(strings.TrimSpace(reported))
	if s == "" {
		return kind.DefaultSeverity()
	}
	return s
}

// IsValidType reports whether t is a known incident type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidSeverity reports whether s is high, medium, or low.
func IsValidSeverity(s string) bool {
	return s == injurycase.SeverityHigh || s == injurycase.SeverityMedium || s == injurycase.SeverityLow
}

// IsNear reports whether the incident happened within window of t, in either direction.
// Incidents written without a linked case are matched to cases this way.
// PRE: Incident is initialized
// POST: Returns boolean indicating proximity
func (i *Incident) IsNear(t time.Time, window time.Duration) bool {
	d := t.Sub(i.OccurredOn)
	if d < 0 {
		d = -d
	}
	return d <= window
}
