package injurycase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/injurycase"
)

const caseColumns = "id, subject_id, team_id, kind, incident_id, opened_on, closed_on, is_active, status, annotation, closed_at, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new case store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// FindOpenBySubject returns a case for the subject whose derived status is not in statusNotIn.
// Status lives partly in the annotation blob, so filtering happens after decoding.
// PRE: subjectID is non-empty
// POST: Returns the most recently created match and true, or false when none exists
func (s *SQLiteStore) FindOpenBySubject(ctx context.Context, subjectID string, statusNotIn []domain.Status) (domain.Case, bool, error) {
	cases, err := s.ListBySubject(ctx, subjectID)
	if err != nil {
		return domain.Case{}, false, err
	}
	for _, c := range cases {
		if !slices.Contains(statusNotIn, c.Status()) {
			return c, true, nil
		}
	}
	return domain.Case{}, false, nil
}

// Create inserts a new case.
// PRE: c has been validated
// POST: Case is persisted; ErrDuplicateOpenCase if the subject already holds an open case
func (s *SQLiteStore) Create(ctx context.Context, c domain.Case) (domain.Case, error) {
	var openSlot any
	if c.Status().IsOpen() {
		openSlot = c.SubjectID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO injury_case (`+caseColumns+`, open_subject_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SubjectID, c.TeamID, string(c.Kind), c.IncidentID,
		storage.FormatTime(c.OpenedOn), storage.FormatNullableTime(c.ClosedOn), c.IsActive,
		c.LegacyStatus, domain.Encode(c.Annotation), storage.FormatNullableTime(c.ClosedAt),
		storage.FormatTime(c.CreatedAt), openSlot)
	if storage.IsUniqueViolation(err) {
		return domain.Case{}, domain.ErrDuplicateOpenCase
	}
	if err != nil {
		return domain.Case{}, fmt.Errorf("failed to insert case: %w", err)
	}
	return c, nil
}

// GetByID retrieves a case by its ID.
// PRE: id is non-empty
// POST: Returns the case or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Case, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+caseColumns+" FROM injury_case WHERE id = ?", id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Case{}, domain.ErrNotFound
	}
	return c, err
}

// ListBySubject returns every case for a subject, newest first.
// PRE: subjectID is non-empty
// POST: Returns matching cases; empty slice when none
func (s *SQLiteStore) ListBySubject(ctx context.Context, subjectID string) ([]domain.Case, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+caseColumns+" FROM injury_case WHERE subject_id = ? ORDER BY created_at DESC, id DESC", subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// UpdateStatus writes the status and annotation in one statement.
// Entering RETURN_TO_WORK or CLOSED releases the open-case slot.
// PRE: a was produced by the lifecycle state machine
// POST: Annotation, coarse status and open-case slot are updated atomically, or ErrNotFound
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.Status, a domain.Annotation) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE injury_case SET
		   annotation = ?,
		   status = ?,
		   open_subject_id = CASE WHEN ? THEN open_subject_id ELSE NULL END
		 WHERE id = ?`,
		domain.Encode(a), domain.CoarseStatus(status), status.IsOpen(), id)
	if err != nil {
		return fmt.Errorf("failed to update case status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (domain.Case, error) {
	var c domain.Case
	var kind, openedOn, createdAt, annotation string
	var closedOn, closedAt sql.NullString
	err := row.Scan(&c.ID, &c.SubjectID, &c.TeamID, &kind, &c.IncidentID, &openedOn, &closedOn,
		&c.IsActive, &c.LegacyStatus, &annotation, &closedAt, &createdAt)
	if err != nil {
		return domain.Case{}, err
	}
	c.Kind = domain.Kind(kind)
	c.Annotation = domain.Decode(annotation)
	if c.OpenedOn, err = storage.ParseStoredTime(openedOn); err != nil {
		return domain.Case{}, fmt.Errorf("failed to parse opened_on: %w", err)
	}
	if c.CreatedAt, err = storage.ParseStoredTime(createdAt); err != nil {
		return domain.Case{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if c.ClosedOn, err = storage.ParseNullableTime(closedOn); err != nil {
		return domain.Case{}, fmt.Errorf("failed to parse closed_on: %w", err)
	}
	if c.ClosedAt, err = storage.ParseNullableTime(closedAt); err != nil {
		return domain.Case{}, fmt.Errorf("failed to parse closed_at: %w", err)
	}
	return c, nil
}
