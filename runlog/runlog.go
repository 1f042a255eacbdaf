// Package runlog records completed runs in a SQLite database so repeated
// runs of the same entry point can be compared by trace digest.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoRuns is returned by Last when nothing matches.
var ErrNoRuns = errors.New("no recorded runs")

// Run is one completed (or failed) invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	Class       string
	Method      string
	ExitCode    int
	Steps       int
	TraceDigest string // "" when no trace was recorded
	Error       string // "" on success
}

// Store is a run history database.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	class        TEXT NOT NULL,
	method       TEXT NOT NULL,
	exit_code    INTEGER NOT NULL,
	steps        INTEGER NOT NULL,
	trace_digest TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT ''
)`

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run. A missing ID is filled with a new UUID and a zero
// StartedAt with the current time; the stored run is returned.
func (s *Store) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, class, method, exit_code, steps, trace_digest, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), r.Class, r.Method, r.ExitCode, r.Steps, r.TraceDigest, r.Error)
	if err != nil {
		return Run{}, fmt.Errorf("saving run: %w", err)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, class, method, exit_code, steps, trace_digest, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Last returns the most recent run of class.method, or ErrNoRuns.
func (s *Store) Last(ctx context.Context, class, method string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, class, method, exit_code, steps, trace_digest, error
		 FROM runs WHERE class = ? AND method = ?
		 ORDER BY started_at DESC, rowid DESC LIMIT 1`, class, method)
	if err != nil {
		return Run{}, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w for %s.%s", ErrNoRuns, class, method)
	}
	return runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Class, &r.Method, &r.ExitCode, &r.Steps, &r.TraceDigest, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return runs, nil
}
