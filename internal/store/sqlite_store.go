package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/streamdrain/internal/capture"
	_ "modernc.org/sqlite"
)

// RunRecord is a captured command as persisted in the store.
type RunRecord struct {
	ID        int64
	Command   []string
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
	Stdout    []string
	Stderr    []string
}

// Store persists captured command runs.
type Store interface {
	// SaveRun stores a finished command with all its captured lines and returns its id.
	SaveRun(res *capture.Result) (int64, error)

	// LoadRun retrieves a run by id; found is false when no such run exists.
	LoadRun(id int64) (*RunRecord, bool, error)

	// DeleteRun removes a run and its lines.
	DeleteRun(id int64) error

	// Close closes the store and releases any resources
	Close() error
}

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies migrations.
func NewSQLiteStore(dbPath string) (Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SaveRun(res *capture.Result) (int64, error) {
	if res == nil {
		return 0, errors.New("cannot save a nil run")
	}
	command, err := json.Marshal(res.Command)
	if err != nil {
		return 0, fmt.Errorf("failed to encode command: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := tx.Exec(
		`INSERT INTO runs (command, exit_code, started_at, duration_ms) VALUES (?, ?, ?, ?)`,
		string(command), res.ExitCode, res.StartedAt.UnixMilli(), res.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_lines (run_id, stream, seq, line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, stream := range []struct {
		name  string
		lines []string
	}{
		{capture.StreamStdout, res.Stdout},
		{capture.StreamStderr, res.Stderr},
	} {
		for i, line := range stream.lines {
			if _, err := stmt.Exec(id, stream.name, i, line); err != nil {
				return 0, fmt.Errorf("failed to save %s line %d: %w", stream.name, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

func (s *sqliteStore) LoadRun(id int64) (*RunRecord, bool, error) {
	row := s.db.QueryRow(
		`SELECT command, exit_code, started_at, duration_ms FROM runs WHERE id = ?`, id)

	var (
		command    string
		startedMs  int64
		durationMs int64
	)
	rec := &RunRecord{ID: id, Stdout: []string{}, Stderr: []string{}}
	if err := row.Scan(&command, &rec.ExitCode, &startedMs, &durationMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load run: %w", err)
	}
	if err := json.Unmarshal([]byte(command), &rec.Command); err != nil {
		return nil, false, fmt.Errorf("failed to decode command: %w", err)
	}
	rec.StartedAt = time.UnixMilli(startedMs)
	rec.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := s.db.Query(
		`SELECT stream, line FROM run_lines WHERE run_id = ? ORDER BY stream, seq`, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load run lines: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var stream, line string
		if err := rows.Scan(&stream, &line); err != nil {
			return nil, false, fmt.Errorf("failed to scan run line: %w", err)
		}
		switch stream {
		case capture.StreamStdout:
			rec.Stdout = append(rec.Stdout, line)
		case capture.StreamStderr:
			rec.Stderr = append(rec.Stderr, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate run lines: %w", err)
	}

	return rec, true, nil
}

func (s *sqliteStore) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM run_lines WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run lines: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
