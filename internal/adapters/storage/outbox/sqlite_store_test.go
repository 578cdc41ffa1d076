package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"casework/internal/adapters/storage/outbox"
	"casework/internal/adapters/storage/storagetest"
	domain "casework/internal/domain/outbox"
)

func newEntry(id string, createdAt time.Time) domain.Entry {
	return domain.Entry{
		ID:          id,
		ActionType:  domain.ActionTypeNotificationEmail,
		Payload:     `{"id":"` + id + `"}`,
		Status:      domain.StatusPending,
		MaxAttempts: 3,
		CreatedAt:   createdAt,
	}
}

// TestSQLiteStore_Lifecycle tests saving, retrying and failing an entry.
func TestSQLiteStore_Lifecycle(t *testing.T) {
	store := outbox.NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"o-2", "o-1", "o-3"} {
		if err := store.Save(ctx, newEntry(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	pending, err := store.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "o-2" {
		t.Fatalf("ListPending = %+v, want o-2 first", pending)
	}
	if !pending[0].LastAttemptedAt.IsZero() {
		t.Error("expected unattempted entry to have zero LastAttemptedAt")
	}

	e := pending[0]
	for i := 0; i < e.MaxAttempts; i++ {
		e.MarkAttempt(base.Add(time.Minute))
		e.MarkFailed(errors.New("smtp unavailable"))
	}
	if err := store.Save(ctx, e); err != nil {
		t.Fatalf("Save failed entry: %v", err)
	}

	done := pending[1]
	done.MarkAttempt(base.Add(time.Minute))
	done.MarkSuccess("msg-123")
	if err := store.Save(ctx, done); err != nil {
		t.Fatalf("Save done entry: %v", err)
	}

	pending, err = store.ListPending(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != "o-3" {
		t.Errorf("ListPending after processing = %+v, %v", pending, err)
	}

	failed, err := store.ListFailed(ctx, 10)
	if err != nil || len(failed) != 1 || failed[0].ID != "o-2" {
		t.Fatalf("ListFailed = %+v, %v", failed, err)
	}
	if failed[0].ErrorMessage != "smtp unavailable" || failed[0].Attempts != 3 {
		t.Errorf("failed entry = %+v", failed[0])
	}

	got, err := store.GetByID(ctx, "o-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusDone || got.ExternalID != "msg-123" || !got.LastAttemptedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("GetByID = %+v", got)
	}
}

// TestSQLiteStore_GetByIDNotFound tests the not-found mapping.
func TestSQLiteStore_GetByIDNotFound(t *testing.T) {
	store := outbox.NewSQLiteStore(storagetest.Open(t))
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
