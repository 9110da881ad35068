package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is one row of the sessions table with its crops.
type SessionRecord struct {
	ID           string       `yaml:"id"`
	StartedAt    time.Time    `yaml:"started_at"`
	EndedAt      *time.Time   `yaml:"ended_at,omitempty"`
	DeviceIndex  int          `yaml:"device_index"`
	InitialDelay string       `yaml:"initial_delay"`
	Period       string       `yaml:"period"`
	StartCount   int          `yaml:"start_count"`
	FinalCount   *int         `yaml:"final_count,omitempty"`
	OutputDir    string       `yaml:"output_dir"`
	BaseName     string       `yaml:"base_name"`
	Format       string       `yaml:"format"`
	Crops        []CropRecord `yaml:"crops,omitempty"`
}

// CropRecord is one saved crop.
type CropRecord struct {
	Number  int       `yaml:"number"`
	Path    string    `yaml:"path"`
	X       int       `yaml:"x"`
	Y       int       `yaml:"y"`
	Width   int       `yaml:"width"`
	Height  int       `yaml:"height"`
	SavedAt time.Time `yaml:"saved_at"`
}

// Sessions returns the most recent sessions, newest first. limit <= 0
// returns all of them. Crops are included when withCrops is set.
func (j *Journal) Sessions(limit int, withCrops bool) ([]SessionRecord, error) {
	query := `
		SELECT id, started_at, ended_at, device_index, initial_delay_ms, period_ms,
			start_count, final_count, output_dir, base_name, format
		FROM sessions ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			r               SessionRecord
			ended           sql.NullTime
			final           sql.NullInt64
			delayMS, period int64
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &ended, &r.DeviceIndex, &delayMS, &period,
			&r.StartCount, &final, &r.OutputDir, &r.BaseName, &r.Format); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			r.EndedAt = &t
		}
		if final.Valid {
			n := int(final.Int64)
			r.FinalCount = &n
		}
		r.InitialDelay = (time.Duration(delayMS) * time.Millisecond).String()
		r.Period = (time.Duration(period) * time.Millisecond).String()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if withCrops {
		for i := range out {
			crops, err := j.Crops(out[i].ID)
			if err != nil {
				return nil, err
			}
			out[i].Crops = crops
		}
	}
	return out, nil
}

// Crops returns the crops of one session in the order they were saved.
func (j *Journal) Crops(sessionID string) ([]CropRecord, error) {
	rows, err := j.conn.Query(`
		SELECT number, path, x, y, width, height, saved_at
		FROM crops WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crops: %w", err)
	}
	defer rows.Close()

	var out []CropRecord
	for rows.Next() {
		var c CropRecord
		if err := rows.Scan(&c.Number, &c.Path, &c.X, &c.Y, &c.Width, &c.Height, &c.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
