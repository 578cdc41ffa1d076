package injurycase

// Signal names the raw field that decided a derived status.
type Signal string

// Derivation signals, highest precedence first.
const (
	SignalClosedAt     Signal = "closed_at"
	SignalAnnotation   Signal = "annotation_status"
	SignalLegacyStatus Signal = "legacy_status"
	SignalDefault      Signal = "default"
)

// Derivation is the outcome of reconciling a case's raw status signals.
type Derivation struct {
	Status Status
	Signal Signal
	// Raw is the value of the deciding field as stored.
	Raw string
}

// Derive computes the single canonical status of a case.
// Precedence: a set ClosedAt, then a recognized annotation status, then the legacy
// coarse field. IsActive and ClosedOn never participate.
// PRE: none
// POST: Returns exactly one of AllStatuses; never panics
func Derive(c Case) Derivation {
	if c.ClosedAt != nil && !c.ClosedAt.IsZero() {
		return Derivation{Status: StatusClosed, Signal: SignalClosedAt, Raw: c.ClosedAt.UTC().Format("2006-01-02T15:04:05Z07:00")}
	}

	if st, ok := ParseStatus(string(c.Annotation.Status)); ok {
		return Derivation{Status: st, Signal: SignalAnnotation, Raw: string(c.Annotation.Status)}
	}

	switch c.LegacyStatus {
	case LegacyClosed:
		return Derivation{Status: StatusClosed, Signal: SignalLegacyStatus, Raw: c.LegacyStatus}
	case LegacyInRehab:
		return Derivation{Status: StatusInRehab, Signal: SignalLegacyStatus, Raw: c.LegacyStatus}
	case LegacyActive:
		return Derivation{Status: StatusAssessed, Signal: SignalLegacyStatus, Raw: c.LegacyStatus}
	}

	return Derivation{Status: StatusNew, Signal: SignalDefault, Raw: c.LegacyStatus}
}
