package rehabplan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/rehabplan"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new rehabilitation plan store.
// now decides which plans have ended; time.Now when nil.
func NewSQLiteStore(db storage.SQLDB, now func() time.Time) *SQLiteStore {
	if now == nil {
		now = time.Now
	}
	return &SQLiteStore{db: db, now: now}
}

// Save persists a Plan to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Plan) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rehab_plan (id, case_id, status, starts_on, ends_on, created_at) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET case_id=excluded.case_id, status=excluded.status, starts_on=excluded.starts_on, ends_on=excluded.ends_on",
		entity.ID, entity.CaseID, entity.Status, storage.FormatTime(entity.StartsOn),
		storage.FormatNullableTime(entity.EndsOn), storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// ListByCase retrieves every plan attached to a case.
// PRE: caseID is non-empty
// POST: Returns matching entities ordered by start date
func (s *SQLiteStore) ListByCase(ctx context.Context, caseID string) ([]domain.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, case_id, status, starts_on, ends_on, created_at FROM rehab_plan WHERE case_id = ? ORDER BY starts_on", caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Plan
	for rows.Next() {
		var p domain.Plan
		var startsOn, createdAt string
		var endsOn sql.NullString
		if err := rows.Scan(&p.ID, &p.CaseID, &p.Status, &startsOn, &endsOn, &createdAt); err != nil {
			return nil, err
		}
		if p.StartsOn, err = storage.ParseStoredTime(startsOn); err != nil {
			return nil, fmt.Errorf("failed to parse starts_on: %w", err)
		}
		if p.CreatedAt, err = storage.ParseStoredTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if p.EndsOn, err = storage.ParseNullableTime(endsOn); err != nil {
			return nil, fmt.Errorf("failed to parse ends_on: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// HasActivePlan reports whether any active plan that has not ended references the case.
// PRE: caseID is non-empty
// POST: Returns false for unknown cases
func (s *SQLiteStore) HasActivePlan(ctx context.Context, caseID string) (bool, error) {
	plans, err := s.ListByCase(ctx, caseID)
	if err != nil {
		return false, fmt.Errorf("failed to load rehabilitation plans: %w", err)
	}
	now := s.now()
	for i := range plans {
		if plans[i].IsActive(now) {
			return true, nil
		}
	}
	return false, nil
}
