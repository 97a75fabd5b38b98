// Package store persists compiled runs in SQLite so successive compilations
// of the same model can be listed and compared. The stored payload is the
// canonical IR serialization, which is byte-identical across recompiles of
// an unchanged model.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is RFC 3339 with a fixed-width fraction. RFC3339Nano trims
// trailing zeros, which breaks the lexicographic ordering ListRuns relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides durable storage for compiled runs.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path. WAL mode allows
// concurrent reads while a compile writes; the single-connection pool avoids
// SQLITE_BUSY on the one writer SQLite supports. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Run is one stored compilation.
type Run struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}

// SaveRun stores a compiled IR payload under a fresh run id and returns it.
func (s *Store) SaveRun(modelName string, canonical []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO runs (id, model, created_at, ir) VALUES (?, ?, ?, ?)",
		id, modelName, time.Now().UTC().Format(timeLayout), canonical,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs, most recent first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, model, created_at, length(ir) FROM runs ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Model, &createdAt, &run.Size); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRun returns the stored canonical IR payload for a run id.
func (s *Store) LoadRun(id string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT ir FROM runs WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	return payload, nil
}
