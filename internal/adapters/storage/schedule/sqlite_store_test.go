package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"casework/internal/adapters/storage/schedule"
	"casework/internal/adapters/storage/storagetest"
	domain "casework/internal/domain/schedule"
)

// TestSQLiteStore_DeactivateAll tests the schedule registry's bulk deactivation.
func TestSQLiteStore_DeactivateAll(t *testing.T) {
	store := schedule.NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	slots := []domain.WorkSchedule{
		{ID: "s-1", SubjectID: "w-1", Day: domain.Monday, StartTime: "07:00", EndTime: "15:00", Active: true},
		{ID: "s-2", SubjectID: "w-1", Day: domain.Tuesday, StartTime: "07:00", EndTime: "15:00", Active: true},
		{ID: "s-3", SubjectID: "w-1", Day: domain.Friday, StartTime: "07:00", EndTime: "15:00", Active: false},
		{ID: "s-4", SubjectID: "w-2", Day: domain.Monday, StartTime: "07:00", EndTime: "15:00", Active: true},
	}
	for _, s := range slots {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save %s: %v", s.ID, err)
		}
	}

	n, err := store.DeactivateAll(ctx, "w-1", now)
	if err != nil {
		t.Fatalf("DeactivateAll: %v", err)
	}
	if n != 2 {
		t.Errorf("deactivated %d, want 2", n)
	}

	got, err := store.ListBySubject(ctx, "w-1")
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	for _, s := range got {
		if s.Active {
			t.Errorf("slot %s still active", s.ID)
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d slots, want 3", len(got))
	}
	monday, err := store.GetByID(ctx, "s-1")
	if err != nil || !monday.UpdatedAt.Equal(now) {
		t.Errorf("s-1 UpdatedAt = %v (%v), want %v", monday.UpdatedAt, err, now)
	}
	friday, _ := store.GetByID(ctx, "s-3")
	if !friday.UpdatedAt.IsZero() {
		t.Error("already inactive slot must not be touched")
	}

	other, err := store.GetByID(ctx, "s-4")
	if err != nil || !other.Active {
		t.Errorf("other subject's slot changed: %+v, %v", other, err)
	}

	n, err = store.DeactivateAll(ctx, "w-1", now)
	if err != nil || n != 0 {
		t.Errorf("second DeactivateAll = %d, %v; want 0", n, err)
	}
}

// TestSQLiteStore_GetByID_NotFound tests the not-found sentinel.
func TestSQLiteStore_GetByID_NotFound(t *testing.T) {
	store := schedule.NewSQLiteStore(storagetest.Open(t))
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
