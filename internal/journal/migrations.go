package journal

import (
	"database/sql"
	"fmt"
	"log"
)

// migration is one schema step. Steps run in order inside a transaction.
type migration struct {
	version     int
	description string
	up          string
}

var migrations = []migration{
	{
		version:     1,
		description: "Create sessions table",
		up: `CREATE TABLE sessions (
			id               TEXT PRIMARY KEY,
			started_at       DATETIME NOT NULL,
			ended_at         DATETIME,
			device_index     INTEGER NOT NULL,
			initial_delay_ms INTEGER NOT NULL,
			period_ms        INTEGER NOT NULL,
			start_count      INTEGER NOT NULL,
			final_count      INTEGER,
			output_dir       TEXT NOT NULL,
			base_name        TEXT NOT NULL,
			format           TEXT NOT NULL
		)`,
	},
	{
		version:     2,
		description: "Create crops table",
		up: `CREATE TABLE crops (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			number     INTEGER NOT NULL,
			path       TEXT NOT NULL,
			x          INTEGER NOT NULL,
			y          INTEGER NOT NULL,
			width      INTEGER NOT NULL,
			height     INTEGER NOT NULL,
			saved_at   DATETIME NOT NULL
		);
		CREATE INDEX idx_crops_session ON crops(session_id)`,
	},
}

func (j *Journal) migrate() error {
	if _, err := j.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := j.Version()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := j.apply(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}
		log.Printf("[Journal] Applied migration %d: %s", m.version, m.description)
	}
	return nil
}

func (j *Journal) apply(m migration) error {
	tx, err := j.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Version returns the applied schema version, 0 for a fresh database.
func (j *Journal) Version() (int, error) {
	var v sql.NullInt64
	if err := j.conn.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}
