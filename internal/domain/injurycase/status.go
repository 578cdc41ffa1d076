package injurycase

// Status is the canonical lifecycle state of a case.
type Status string

// Canonical statuses, in lifecycle order.
const (
	StatusNew          Status = "NEW"
	StatusTriaged      Status = "TRIAGED"
	StatusAssessed     Status = "ASSESSED"
	StatusInRehab      Status = "IN_REHAB"
	StatusReturnToWork Status = "RETURN_TO_WORK"
	StatusClosed       Status = "CLOSED"
)

// AllStatuses lists every canonical status in lifecycle order.
var AllStatuses = []Status{
	StatusNew,
	StatusTriaged,
	StatusAssessed,
	StatusInRehab,
	StatusReturnToWork,
	StatusClosed,
}

// Legacy coarse status values written by older code paths.
const (
	LegacyOpen    = "OPEN"
	LegacyClosed  = "CLOSED"
	LegacyInRehab = "IN_REHAB_LEGACY"
	LegacyActive  = "ACTIVE_LEGACY"
)

// ParseStatus converts a raw string to a Status.
// PRE: none
// POST: Returns the status and true when s is a canonical value, "" and false otherwise
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if st.Valid() {
		return st, true
	}
	return "", false
}

// Valid reports whether s is one of the six canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusTriaged, StatusAssessed, StatusInRehab, StatusReturnToWork, StatusClosed:
		return true
	}
	return false
}

// IsOpen reports whether a case in this status blocks a new intake for the same subject.
// INVARIANT: only RETURN_TO_WORK and CLOSED release the subject
func (s Status) IsOpen() bool {
	return s != StatusReturnToWork && s != StatusClosed
}

// ClosedStatuses is the statusNotIn filter used by the eligibility check.
var ClosedStatuses = []Status{StatusClosed, StatusReturnToWork}

// CoarseStatus maps a canonical status onto the legacy coarse column so older
// readers keep seeing a consistent value after a transition.
func CoarseStatus(s Status) string {
	switch s {
	case StatusNew:
		return LegacyOpen
	case StatusClosed:
		return LegacyClosed
	case StatusInRehab:
		return LegacyInRehab
	default:
		return LegacyActive
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
