package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/schedule"
)

// ErrNotFound is returned when no schedule has the requested ID.
var ErrNotFound = errors.New("schedule not found")

const scheduleColumns = "id, subject_id, day, start_time, end_time, active, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a WorkSchedule by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.WorkSchedule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM work_schedule WHERE id = ?", id)
	entity, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WorkSchedule{}, ErrNotFound
	}
	return entity, err
}

// Save persists a WorkSchedule to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.WorkSchedule) error {
	var updatedAt any
	if !entity.UpdatedAt.IsZero() {
		updatedAt = storage.FormatTime(entity.UpdatedAt)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO work_schedule ("+scheduleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET subject_id=excluded.subject_id, day=excluded.day, start_time=excluded.start_time, end_time=excluded.end_time, active=excluded.active, updated_at=excluded.updated_at",
		entity.ID, entity.SubjectID, entity.Day, entity.StartTime, entity.EndTime, entity.Active, updatedAt,
	)
	return err
}

// ListBySubject retrieves every slot, active or not, for a subject.
// PRE: subjectID is non-empty
// POST: Returns matching entities ordered by day and start time
func (s *SQLiteStore) ListBySubject(ctx context.Context, subjectID string) ([]domain.WorkSchedule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+scheduleColumns+" FROM work_schedule WHERE subject_id = ? ORDER BY day, start_time", subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.WorkSchedule
	for rows.Next() {
		entity, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// DeactivateAll takes every active slot for the subject off the roster in one statement.
// PRE: subjectID is non-empty
// POST: Returns the number of slots that were active before the call
func (s *SQLiteStore) DeactivateAll(ctx context.Context, subjectID string, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE work_schedule SET active = 0, updated_at = ? WHERE subject_id = ? AND active = 1",
		storage.FormatTime(now), subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate schedules: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (domain.WorkSchedule, error) {
	var entity domain.WorkSchedule
	var updatedAt sql.NullString
	err := row.Scan(&entity.ID, &entity.SubjectID, &entity.Day, &entity.StartTime, &entity.EndTime, &entity.Active, &updatedAt)
	if err != nil {
		return domain.WorkSchedule{}, err
	}
	t, err := storage.ParseNullableTime(updatedAt)
	if err != nil {
		return domain.WorkSchedule{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if t != nil {
		entity.UpdatedAt = *t
	}
	return entity, nil
}
