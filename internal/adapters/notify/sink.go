// Package notify delivers case notifications to their channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	outboxStore "casework/internal/adapters/storage/outbox"
	"casework/internal/domain/notification"
	"casework/internal/domain/outbox"
)

// Sink accepts notifications for asynchronous delivery.
type Sink interface {
	// Enqueue accepts one notification.
	// PRE: n.Validate() == nil
	// POST: The notification will be delivered later or an error is returned now
	Enqueue(ctx context.Context, n notification.Notification) error
}

// OutboxSink writes each notification as an email entry in the outbox.
// The outbox processor delivers it with retries.
type OutboxSink struct {
	store       outboxStore.Store
	now         func() time.Time
	generateID  func() string
	maxAttempts int
}

// NewOutboxSink creates a sink backed by the outbox store.
func NewOutboxSink(store outboxStore.Store, now func() time.Time, generateID func() string) *OutboxSink {
	return &OutboxSink{store: store, now: now, generateID: generateID, maxAttempts: outbox.DefaultMaxAttempts}
}

// Enqueue stores the notification as a pending outbox entry.
// PRE: n.Validate() == nil
// POST: One pending notification_email entry exists for n
func (s *OutboxSink) Enqueue(ctx context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	entry := outbox.Entry{
		ID:          s.generateID(),
		ActionType:  outbox.ActionTypeNotificationEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: s.maxAttempts,
		CreatedAt:   s.now(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return nil
}

// DecodePayload reads a notification back from an outbox payload.
func DecodePayload(payload string) (notification.Notification, error) {
	var n notification.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return notification.Notification{}, fmt.Errorf("unmarshal notification payload: %w", err)
	}
	if err := n.Validate(); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}
