package team

import (
	"context"
	"database/sql"
	"errors"

	"casework/internal/adapters/storage"
	domain "casework/internal/domain/team"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new team store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Team by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Team, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, supervisor_id, lead_id FROM team WHERE id = ?", id)
	var entity domain.Team
	err := row.Scan(&entity.ID, &entity.Name, &entity.SupervisorID, &entity.LeadID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Team{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Team to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Team) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO team (id, name, supervisor_id, lead_id) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name, supervisor_id=excluded.supervisor_id, lead_id=excluded.lead_id",
		entity.ID, entity.Name, entity.SupervisorID, entity.LeadID,
	)
	return err
}

// ResolveTeam returns the routing context for a worker.
// PRE: subjectID is non-empty
// POST: Returns ErrNoTeam when the worker is unknown or has no team
func (s *SQLiteStore) ResolveTeam(ctx context.Context, subjectID string) (domain.Routing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.supervisor_id, t.lead_id
		 FROM worker w JOIN team t ON t.id = w.team_id
		 WHERE w.id = ?`, subjectID)
	var r domain.Routing
	err := row.Scan(&r.TeamID, &r.SupervisorID, &r.LeadID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Routing{}, domain.ErrNoTeam
	}
	return r, err
}
