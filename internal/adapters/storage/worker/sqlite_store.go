package worker

import (
	"context"
	"database/sql"
	"errors"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/worker"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new worker store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Worker by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Worker, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, email, team_id, status FROM worker WHERE id = ?", id)
	entity, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Worker{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Worker to the database.
// An empty TeamID is stored as NULL.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Worker) error {
	var teamID any
	if entity.TeamID != "" {
		teamID = entity.TeamID
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO worker (id, name, email, team_id, status) VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name, email=excluded.email, team_id=excluded.team_id, status=excluded.status",
		entity.ID, entity.Name, entity.Email, teamID, entity.Status,
	)
	return err
}

// ListByTeam retrieves the workers assigned to a team.
// PRE: teamID is non-empty
// POST: Returns matching entities ordered by name
func (s *SQLiteStore) ListByTeam(ctx context.Context, teamID string) ([]domain.Worker, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, team_id, status FROM worker WHERE team_id = ? ORDER BY name", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Worker
	for rows.Next() {
		entity, err := scanWorker(rows)
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

func scanWorker(row scanner) (domain.Worker, error) {
	var entity domain.Worker
	var teamID sql.NullString
	if err := row.Scan(&entity.ID, &entity.Name, &entity.Email, &teamID, &entity.Status); err != nil {
		return domain.Worker{}, err
	}
	if teamID.Valid {
		entity.TeamID = teamID.String
	}
	return entity, nil
}
