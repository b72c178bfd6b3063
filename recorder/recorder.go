// Package recorder writes the parsed record set of one run to a SQLite file
// so it can be queried offline. The file is a snapshot: every run replaces it.
package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"meshlog/parser"

	_ "modernc.org/sqlite"
)

// Recorder owns an open snapshot database.
type Recorder struct {
	db   *sql.DB
	path string
}

// NewRecorder creates a fresh database at path, removing any previous
// snapshot, and ensures the schema exists.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, errors.New("recorder: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("recorder: ensure dir: %w", err)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("recorder: remove old snapshot: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: schema: %w", err)
	}
	return &Recorder{db: db, path: path}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sensor_events (
    line INTEGER PRIMARY KEY,
    timestamp TEXT NOT NULL,
    timestamp_inferred INTEGER NOT NULL,
    node TEXT NOT NULL,
    hops INTEGER NOT NULL,
    delay_ms INTEGER NOT NULL,
    temperature REAL NOT NULL,
    humidity REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sensor_events_node ON sensor_events(node);
CREATE TABLE IF NOT EXISTS relay_tally (
    node TEXT PRIMARY KEY,
    first_seen INTEGER NOT NULL,
    relayed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS error_records (
    line INTEGER PRIMARY KEY,
    message TEXT NOT NULL
);`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file location.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record stores events, relay tally and error records in one transaction.
func (r *Recorder) Record(ctx context.Context, res parser.Result) error {
	if r == nil || r.db == nil {
		return errors.New("recorder: closed")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recorder: begin: %w", err)
	}
	if err := insertAll(ctx, tx, res); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recorder: commit: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, res parser.Result) error {
	evStmt, err := tx.PrepareContext(ctx, `
INSERT INTO sensor_events (
    line, timestamp, timestamp_inferred, node, hops, delay_ms, temperature, humidity
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("recorder: prepare events: %w", err)
	}
	defer evStmt.Close()
	for _, ev := range res.Events {
		if _, err := evStmt.ExecContext(ctx,
			ev.Line,
			ev.Timestamp,
			boolToInt(ev.TimestampInferred),
			ev.Node,
			ev.Hops,
			ev.DelayMS,
			ev.Temperature,
			ev.Humidity,
		); err != nil {
			return fmt.Errorf("recorder: insert event line %d: %w", ev.Line, err)
		}
	}

	for i, node := range res.Relays.Nodes() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relay_tally (node, first_seen, relayed) VALUES (?, ?, ?)`,
			node, i, res.Relays.Count(node)); err != nil {
			return fmt.Errorf("recorder: insert relay %s: %w", node, err)
		}
	}

	for _, rec := range res.Errors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO error_records (line, message) VALUES (?, ?)`,
			rec.Line, rec.Message); err != nil {
			return fmt.Errorf("recorder: insert error line %d: %w", rec.Line, err)
		}
	}
	return nil
}

// WriteSnapshot is the one-shot form used by the CLI.
func WriteSnapshot(ctx context.Context, path string, res parser.Result) error {
	rec, err := NewRecorder(path)
	if err != nil {
		return err
	}
	if err := rec.Record(ctx, res); err != nil {
		rec.Close()
		return err
	}
	return rec.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
