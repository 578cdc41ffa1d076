package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// FormatTime renders t the way every store writes timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatNullableTime returns nil for a nil or zero time so the column stays NULL.
func FormatNullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return FormatTime(*t)
}

// ParseStoredTime parses timestamps written by this package or by older tooling.
// PRE: value is non-empty
// POST: Returns the parsed time or an error naming the unsupported format
func ParseStoredTime(value string) (time.Time, error) {
	if idx := strings.Index(value, " m="); idx != -1 {
		value = value[:idx]
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

// ParseNullableTime parses a nullable column; NULL and empty strings yield nil.
func ParseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := ParseStoredTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
