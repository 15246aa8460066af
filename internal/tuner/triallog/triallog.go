// Package triallog persists per-trial bookkeeping (hyperparameters and
// scores) for one search project in a sqlite file under the project's
// search directory. It is what gives the directory/overwrite
// configuration observable semantics: with overwrite disabled, a new run
// reloads the existing records and resumes trial accounting. Model
// weights are never stored here.
package triallog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Record is one persisted trial outcome.
type Record struct {
	ID     string
	Params map[string]float64
	Score  float64
	Epochs int
}

// Log is an append-only trial record store. Safe for use from one
// search loop at a time.
type Log struct {
	db *sql.DB
}

// Open creates or reopens the trial log for a project. With overwrite
// set, any existing log file is removed first.
func Open(ctx context.Context, dir, project string, overwrite bool) (*Log, error) {
	if dir == "" {
		return nil, errors.New("triallog: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("triallog: creating directory: %w", err)
	}
	path := filepath.Join(dir, project+".db")
	if overwrite {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("triallog: removing stale log: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trials (
			id TEXT PRIMARY KEY,
			seq INTEGER,
			params TEXT NOT NULL,
			score REAL NOT NULL,
			epochs INTEGER NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("triallog: creating schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Append stores one trial record.
func (l *Log) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Params)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO trials (id, seq, params, score, epochs)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM trials), ?, ?, ?)
	`, rec.ID, payload, rec.Score, rec.Epochs)
	return err
}

// All returns every stored trial in insertion order.
func (l *Log) All(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, params, score, epochs FROM trials ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &payload, &rec.Score, &rec.Epochs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &rec.Params); err != nil {
			return nil, fmt.Errorf("triallog: decoding trial %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
