package media

import (
	"context"
	"errors"
	"strings"
)

// MaxObjectSize bounds a single attachment.
const MaxObjectSize = 10 << 20

// Media errors.
var (
	ErrDisabled   = errors.New("media storage is not configured")
	ErrEmptyMedia = errors.New("media object has no content")
	ErrTooLarge   = errors.New("media object exceeds 10 MiB")
)

// Object is a binary attachment supplied with an incident report.
type Object struct {
	Data        []byte
	ContentType string
	// SubjectID groups objects per worker under the store prefix.
	SubjectID string
}

// Validate checks the object can be stored.
// PRE: none
// POST: Returns ErrEmptyMedia or ErrTooLarge when the content is unusable
func (o Object) Validate() error {
	if len(o.Data) == 0 {
		return ErrEmptyMedia
	}
	if len(o.Data) > MaxObjectSize {
		return ErrTooLarge
	}
	return nil
}

func (o Object) contentType() string {
	if ct := strings.TrimSpace(o.ContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Store persists attachments and returns an opaque reference to them.
type Store interface {
	// Put stores the object.
	// PRE: obj.Validate() == nil
	// POST: Returns a reference that identifies the stored content
	Put(ctx context.Context, obj Object) (string, error)
}

// Disabled is a Store used when no media backend is configured.
type Disabled struct{}

// Put always fails with ErrDisabled.
func (Disabled) Put(context.Context, Object) (string, error) {
	return "", ErrDisabled
}
