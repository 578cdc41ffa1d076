package incident

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/incident"
)

const incidentColumns = "id, subject_id, type, occurred_on, description, severity, photo_ref, analysis, reported_by, reported_at"

// DefaultListLimit applies when a filter carries no limit.
const DefaultListLimit = 100

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new incident store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts an incident. Existing records are never overwritten.
// PRE: entity has been validated
// POST: Entity is persisted, or an error is returned and nothing is written
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Incident) (domain.Incident, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO incident ("+incidentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entity.ID,
		entity.SubjectID,
		entity.Type,
		storage.FormatTime(entity.OccurredOn),
		entity.Description,
		entity.Severity,
		entity.PhotoRef,
		entity.Analysis,
		entity.ReportedBy,
		storage.FormatTime(entity.ReportedAt),
	)
	if err != nil {
		return domain.Incident{}, fmt.Errorf("failed to insert incident: %w", err)
	}
	return entity, nil
}

// GetByID retrieves an Incident by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Incident, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+incidentColumns+" FROM incident WHERE id = ?", id)
	entity, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Incident{}, domain.ErrNotFound
	}
	return entity, err
}

// ListBySubject retrieves a subject's incidents, most recent occurrence first.
// PRE: subjectID is non-empty
// POST: Returns matching entities within the filter window
func (s *SQLiteStore) ListBySubject(ctx context.Context, subjectID string, filter ListFilter) ([]domain.Incident, error) {
	query := "SELECT " + incidentColumns + " FROM incident WHERE subject_id = ?"
	args := []any{subjectID}
	if !filter.From.IsZero() {
		query += " AND occurred_on >= ?"
		args = append(args, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		query += " AND occurred_on <= ?"
		args = append(args, storage.FormatTime(filter.To))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY occurred_on DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Incident
	for rows.Next() {
		entity, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIncident(row scanner) (domain.Incident, error) {
	var entity domain.Incident
	var occurredOn, reportedAt string
	err := row.Scan(
		&entity.ID,
		&entity.SubjectID,
		&entity.Type,
		&occurredOn,
		&entity.Description,
		&entity.Severity,
		&entity.PhotoRef,
		&entity.Analysis,
		&entity.ReportedBy,
		&reportedAt,
	)
	if err != nil {
		return domain.Incident{}, err
	}
	if entity.OccurredOn, err = storage.ParseStoredTime(occurredOn); err != nil {
		return domain.Incident{}, fmt.Errorf("failed to parse occurred_on: %w", err)
	}
	if entity.ReportedAt, err = storage.ParseStoredTime(reportedAt); err != nil {
		return domain.Incident{}, fmt.Errorf("failed to parse reported_at: %w", err)
	}
	return entity, nil
}
