package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"casework/internal/domain/injurycase"
)

// migration is one forward-only schema step. Version N is recorded after migrations[N-1] applies.
type migration struct {
	name  string
	apply func(tx *sql.Tx) error
}

var migrations = []migration{
	{name: "baseline", apply: migrateBaseline},
	{name: "case_open_slot", apply: migrateCaseOpenSlot},
}

// LatestSchemaVersion returns the version a fully migrated database reports.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid database connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid database connection; path names the database file (":memory:" for tests)
// POST: All pending migrations are applied in order, each in its own transaction
func MigrateDB(db *sql.DB, path string) error {
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for v := current + 1; v <= LatestSchemaVersion(); v++ {
		m := migrations[v-1]
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", v, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", v, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version, name) VALUES (?, ?)`, v, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", v, err)
		}
		slog.Info("migration_applied", "version", v, "name", m.name, "path", path)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func migrateBaseline(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS team (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		supervisor_id TEXT NOT NULL,
		lead_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS worker (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		team_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		FOREIGN KEY (team_id) REFERENCES team(id)
	);

	CREATE TABLE IF NOT EXISTS incident (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		type TEXT NOT NULL,
		occurred_on TEXT NOT NULL,
		description TEXT NOT NULL,
		severity TEXT NOT NULL,
		photo_ref TEXT NOT NULL DEFAULT '',
		analysis TEXT NOT NULL DEFAULT '',
		reported_by TEXT NOT NULL,
		reported_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_incident_subject ON incident(subject_id, occurred_on);

	CREATE TABLE IF NOT EXISTS injury_case (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		incident_id TEXT NOT NULL DEFAULT '',
		opened_on TEXT NOT NULL,
		closed_on TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'OPEN',
		annotation TEXT NOT NULL DEFAULT '',
		closed_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_injury_case_subject ON injury_case(subject_id);

	CREATE TABLE IF NOT EXISTS work_schedule (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		day TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_work_schedule_subject ON work_schedule(subject_id, active);

	CREATE TABLE IF NOT EXISTS rehab_plan (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL,
		status TEXT NOT NULL,
		starts_on TEXT NOT NULL,
		ends_on TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rehab_plan_case ON rehab_plan(case_id);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		resource_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_audit_event_resource ON audit_event(resource_type, resource_id);
	`
	_, err := tx.Exec(schema)
	return err
}

// migrateCaseOpenSlot adds a unique per-subject slot held while a case is open,
// so concurrent intakes for one worker cannot both open a case.
func migrateCaseOpenSlot(tx *sql.Tx) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('injury_case') WHERE name = 'open_subject_id'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := tx.Exec(`ALTER TABLE injury_case ADD COLUMN open_subject_id TEXT`); err != nil {
			return err
		}
	}
	if err := backfillOpenSlots(tx); err != nil {
		return err
	}
	_, err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_injury_case_open_subject ON injury_case(open_subject_id)`)
	return err
}

// backfillOpenSlots gives the newest case per subject whose derived status is open
// the subject's slot. Every other case is left without one.
func backfillOpenSlots(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id, subject_id, status, annotation, COALESCE(closed_at, '')
		FROM injury_case ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return fmt.Errorf("scan cases for open slots: %w", err)
	}
	holder := map[string]string{}
	for rows.Next() {
		var id, subjectID, legacy, annotation, closedAt string
		if err := rows.Scan(&id, &subjectID, &legacy, &annotation, &closedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan case row: %w", err)
		}
		if _, taken := holder[subjectID]; taken {
			continue
		}
		c := injurycase.Case{ID: id, SubjectID: subjectID, LegacyStatus: legacy, Annotation: injurycase.Decode(annotation)}
		if closedAt != "" {
			// An unparsable closed_at still marks the case as closed.
			t, err := ParseStoredTime(closedAt)
			if err != nil || t.IsZero() {
				t = time.Unix(0, 0).UTC()
			}
			c.ClosedAt = &t
		}
		if injurycase.Derive(c).Status.IsOpen() {
			holder[subjectID] = id
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate case rows: %w", err)
	}
	rows.Close()

	if _, err := tx.Exec(`UPDATE injury_case SET open_subject_id = NULL`); err != nil {
		return fmt.Errorf("clear open slots: %w", err)
	}
	for subjectID, id := range holder {
		if _, err := tx.Exec(`UPDATE injury_case SET open_subject_id = ? WHERE id = ?`, subjectID, id); err != nil {
			return fmt.Errorf("assign open slot for %s: %w", subjectID, err)
		}
	}
	if len(holder) > 0 {
		slog.Info("open_slots_backfilled", "count", len(holder))
	}
	return nil
}
