package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"casework/internal/domain/notification"
	"casework/internal/domain/outbox"
)

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fakeOutbox struct {
	saved []outbox.Entry
	err   error
}

func (f *fakeOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	for _, e := range f.saved {
		if e.ID == id {
			return e, nil
		}
	}
	return outbox.Entry{}, outbox.ErrNotFound
}

func (f *fakeOutbox) Save(_ context.Context, e outbox.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, e)
	return nil
}

func (f *fakeOutbox) ListPending(context.Context, int) ([]outbox.Entry, error) { return f.saved, nil }
func (f *fakeOutbox) ListFailed(context.Context, int) ([]outbox.Entry, error)  { return nil, nil }

func sampleNotification() notification.Notification {
	return notification.Notification{
		ID:          "n-1",
		Kind:        notification.KindSupervisorAlert,
		CaseID:      "case-1",
		RecipientID: "sup-1",
		Subject:     "New injury case reported",
		Body:        "A new **injury** case was opened.",
		CreatedAt:   fixedNow,
	}
}

// TestOutboxSink_Enqueue tests that a notification becomes one pending email entry.
func TestOutboxSink_Enqueue(t *testing.T) {
	store := &fakeOutbox{}
	sink := NewOutboxSink(store, func() time.Time { return fixedNow }, func() string { return "o-1" })

	if err := sink.Enqueue(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d entries, want 1", len(store.saved))
	}
	e := store.saved[0]
	if e.ID != "o-1" || e.ActionType != outbox.ActionTypeNotificationEmail || e.Status != outbox.StatusPending {
		t.Errorf("entry = %+v", e)
	}
	if e.MaxAttempts != outbox.DefaultMaxAttempts || !e.CreatedAt.Equal(fixedNow) {
		t.Errorf("entry attempts/created = %d/%v", e.MaxAttempts, e.CreatedAt)
	}

	got, err := DecodePayload(e.Payload)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got.RecipientID != "sup-1" || got.Kind != notification.KindSupervisorAlert || !got.CreatedAt.Equal(fixedNow) {
		t.Errorf("decoded = %+v", got)
	}
}

// TestOutboxSink_Errors tests invalid notifications and store failures.
func TestOutboxSink_Errors(t *testing.T) {
	store := &fakeOutbox{}
	sink := NewOutboxSink(store, func() time.Time { return fixedNow }, func() string { return "o-1" })

	n := sampleNotification()
	n.RecipientID = ""
	if err := sink.Enqueue(context.Background(), n); !errors.Is(err, notification.ErrEmptyRecipient) {
		t.Errorf("err = %v, want ErrEmptyRecipient", err)
	}

	store.err = errors.New("database is locked")
	if err := sink.Enqueue(context.Background(), sampleNotification()); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("err = %v, want wrapped store error", err)
	}
	if _, err := DecodePayload("{"); err == nil {
		t.Error("expected error for malformed payload")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a write deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

// TestKafkaSink_Enqueue tests message keying and payload.
func TestKafkaSink_Enqueue(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, 0)

	if err := sink.Enqueue(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "case-1" {
		t.Errorf("Key = %q, want case-1", m.Key)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != "supervisor_alert" {
		t.Errorf("Headers = %+v", m.Headers)
	}
	got, err := DecodePayload(string(m.Value))
	if err != nil || got.ID != "n-1" {
		t.Errorf("decoded = %+v, %v", got, err)
	}

	w.err = errors.New("leader not available")
	if err := sink.Enqueue(context.Background(), sampleNotification()); err == nil {
		t.Error("expected write error")
	}
	if err := sink.Close(); err != nil || !w.closed {
		t.Errorf("Close = %v, closed = %v", err, w.closed)
	}
}

// TestNewKafkaSink_RequiresConfig tests the configuration guard.
func TestNewKafkaSink_RequiresConfig(t *testing.T) {
	if _, err := NewKafkaSink(KafkaConfig{Topic: "case-notifications"}); err == nil {
		t.Error("expected error without brokers")
	}
	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "case-notifications"})
	if err != nil {
		t.Fatalf("NewKafkaSink: %v", err)
	}
	_ = sink.Close()
}
