package injurycase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DutyType is the kind of duty a worker returns to.
type DutyType string

// Return-to-work duty types.
const (
	DutyModified DutyType = "modified"
	DutyFull     DutyType = "full"
)

// Valid reports whether d is a recognized duty type.
func (d DutyType) Valid() bool {
	return d == DutyModified || d == DutyFull
}

// ParseDutyType normalizes a raw duty type string.
// PRE: none
// POST: Returns the duty type and true when recognized (case-insensitive)
func ParseDutyType(s string) (DutyType, bool) {
	d := DutyType(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// dateLayout is the storage layout for calendar days.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
// PRE: none
// POST: Returns an error when s is not a real calendar day
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Annotation is the structured metadata blob stored alongside a case.
// Zero values mean "absent".
type Annotation struct {
	Status           Status
	ApprovedBy       string
	ApprovedAt       time.Time
	DutyType         DutyType
	ReturnToWorkDate Date
	ClinicalNotes    string
}

// Equal reports whether two annotations carry the same values.
func (a Annotation) Equal(b Annotation) bool {
	return a.Status == b.Status &&
		a.ApprovedBy == b.ApprovedBy &&
		a.ApprovedAt.Equal(b.ApprovedAt) &&
		a.DutyType == b.DutyType &&
		a.ReturnToWorkDate == b.ReturnToWorkDate &&
		a.ClinicalNotes == b.ClinicalNotes
}

// IsEmpty reports whether no field is set.
func (a Annotation) IsEmpty() bool {
	return a.Equal(Annotation{})
}

// wireAnnotation is the persisted JSON shape.
type wireAnnotation struct {
	Status               string `json:"status,omitempty"`
	ApprovedBy           string `json:"approvedBy,omitempty"`
	ApprovedAt           string `json:"approvedAt,omitempty"`
	ReturnToWorkDutyType string `json:"returnToWorkDutyType,omitempty"`
	ReturnToWorkDate     string `json:"returnToWorkDate,omitempty"`
	ClinicalNotes        string `json:"clinicalNotes,omitempty"`
}

// Encode serializes an annotation to its persisted JSON form.
// PRE: none
// POST: Output is deterministic; Decode(Encode(a)).Equal(a) for any annotation built from valid values
func Encode(a Annotation) string {
	w := wireAnnotation{
		Status:               string(a.Status),
		ApprovedBy:           a.ApprovedBy,
		ReturnToWorkDutyType: string(a.DutyType),
		ClinicalNotes:        a.ClinicalNotes,
	}
	if !a.ApprovedAt.IsZero() {
		w.ApprovedAt = a.ApprovedAt.UTC().Format(time.RFC3339Nano)
	}
	if !a.ReturnToWorkDate.IsZero() {
		w.ReturnToWorkDate = a.ReturnToWorkDate.String()
	}
	b, err := json.Marshal(w)
	if err != nil {
		// wireAnnotation only holds strings
		return "{}"
	}
	return string(b)
}

// fieldKeys lists, per canonical key, the spellings accepted on decode.
// The canonical spelling comes first and wins when several are present.
var fieldKeys = [][]string{
	{"status"},
	{"approvedBy", "approved_by"},
	{"approvedAt", "approved_at"},
	{"returnToWorkDutyType", "return_to_work_duty_type", "dutyType"},
	{"returnToWorkDate", "return_to_work_date"},
	{"clinicalNotes", "clinical_notes"},
}

// Decode parses a persisted annotation blob.
// Unparsable input yields an empty Annotation; individual fields with the wrong
// shape are dropped while the rest are kept.
// PRE: none
// POST: Never fails
func Decode(raw string) Annotation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Annotation{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Annotation{}
	}

	var a Annotation
	for _, keys := range fieldKeys {
		value, ok := lookup(fields, keys)
		if !ok {
			continue
		}
		switch keys[0] {
		case "status":
			if s, ok := decodeString(value); ok {
				a.Status = Status(strings.ToUpper(strings.TrimSpace(s)))
			}
		case "approvedBy":
			if s, ok := decodeString(value); ok {
				a.ApprovedBy = s
			}
		case "approvedAt":
			if t, ok := decodeTimestamp(value); ok {
				a.ApprovedAt = t
			}
		case "returnToWorkDutyType":
			if s, ok := decodeString(value); ok {
				if d, ok := ParseDutyType(s); ok {
					a.DutyType = d
				}
			}
		case "returnToWorkDate":
			if d, ok := decodeDate(value); ok {
				a.ReturnToWorkDate = d
			}
		case "clinicalNotes":
			if s, ok := decodeString(value); ok {
				a.ClinicalNotes = s
			}
		}
	}
	return a
}

func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// decodeTimestamp accepts RFC 3339 strings, a few legacy layouts, and unix milliseconds.
func decodeTimestamp(raw json.RawMessage) (time.Time, bool) {
	if s, ok := decodeString(raw); ok {
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// decodeDate accepts YYYY-MM-DD or a full timestamp (its calendar day is kept).
func decodeDate(raw json.RawMessage) (Date, bool) {
	s, ok := decodeString(raw)
	if !ok {
		return Date{}, false
	}
	if d, err := ParseDate(s); err == nil {
		return d, true
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}
