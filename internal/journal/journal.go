// Package journal records capture sessions and the crops they saved in a
// SQLite database.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"facecrop-go/internal/config"
)

// ErrUnknownSession is returned when a session ID is not in the journal.
var ErrUnknownSession = errors.New("unknown journal session")

// Journal wraps the SQLite connection.
type Journal struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the journal at path and applies pending migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	j := &Journal{conn: conn, path: path, now: time.Now}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}
	return j.conn.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Begin records a new session and returns its ID.
func (j *Journal) Begin(cfg config.Session) (string, error) {
	id := uuid.New().String()
	_, err := j.conn.Exec(`
		INSERT INTO sessions (id, started_at, device_index, initial_delay_ms, period_ms,
			start_count, output_dir, base_name, format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, j.now().UTC(), cfg.DeviceIndex, cfg.InitialDelay.Milliseconds(), cfg.Period.Milliseconds(),
		cfg.StartCount, cfg.OutputDir, cfg.BaseName, cfg.Format)
	if err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	return id, nil
}

// Crop records one saved crop.
func (j *Journal) Crop(sessionID string, n int, path string, region image.Rectangle) error {
	if sessionID == "" {
		return ErrUnknownSession
	}
	_, err := j.conn.Exec(`
		INSERT INTO crops (session_id, number, path, x, y, width, height, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, n, path, region.Min.X, region.Min.Y, region.Dx(), region.Dy(), j.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record crop %s: %w", path, err)
	}
	return nil
}

// End closes a session with its final photo count.
func (j *Journal) End(sessionID string, finalCount int) error {
	res, err := j.conn.Exec(`UPDATE sessions SET ended_at = ?, final_count = ? WHERE id = ?`,
		j.now().UTC(), finalCount, sessionID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return nil
}
