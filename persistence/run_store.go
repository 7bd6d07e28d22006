// Package persistence records completed pipeline runs so operators can audit
// past executions. It is a post-hoc log, not a job queue: nothing is ever
// replayed from it.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/toolgate/pipeline"
)

// StepRecord is the persisted form of one step outcome.
type StepRecord struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	Skip       string `json:"skip,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RunRecord is the persisted form of one pipeline run.
type RunRecord struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Success    bool         `json:"success"`
	DurationMs int64        `json:"duration_ms"`
	Errors     []string     `json:"errors"`
	Steps      []StepRecord `json:"steps"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RecordFromRun converts a pipeline run report into a persistable record.
func RecordFromRun(name string, run *pipeline.Run) *RunRecord {
	record := &RunRecord{
		ID:         uuid.NewString(),
		Name:       name,
		Success:    run.Success,
		DurationMs: run.TotalDuration.Milliseconds(),
		Errors:     run.Errors,
		CreatedAt:  time.Now().UTC(),
	}
	for _, step := range run.Steps {
		sr := StepRecord{
			Name:       step.Name,
			Skip:       string(step.Skip),
			DurationMs: step.Duration.Milliseconds(),
		}
		if step.Result != nil {
			sr.Success = step.Result.Success
		}
		record.Steps = append(record.Steps, sr)
	}
	return record
}

// RunStore persists run records between process restarts.
type RunStore interface {
	Save(ctx context.Context, record *RunRecord) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
	Load(ctx context.Context, id string) (*RunRecord, bool, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLiteRunStore keeps run history in a SQLite database.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens/creates the database at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if dbPath == "" {
		return nil, errors.New("run store path required")
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	store := &SQLiteRunStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		duration_ms INTEGER NOT NULL,
		errors TEXT,
		steps TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes one record.
func (s *SQLiteRunStore) Save(ctx context.Context, record *RunRecord) error {
	if record == nil {
		return errors.New("nil run record")
	}
	errorsJSON, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}
	stepsJSON, err := json.Marshal(record.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, success, duration_ms, errors, steps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.Success, record.DurationMs,
		string(errorsJSON), string(stepsJSON), record.CreatedAt)
	return err
}

// List returns the most recent records, newest first.
func (s *SQLiteRunStore) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, success, duration_ms, errors, steps, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Load retrieves one record by ID.
func (s *SQLiteRunStore) Load(ctx context.Context, id string) (*RunRecord, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, success, duration_ms, errors, steps, created_at
		 FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	record, err := scanRun(rows)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Delete removes one record by ID.
func (s *SQLiteRunStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// Close releases the database handle.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func scanRun(rows *sql.Rows) (*RunRecord, error) {
	var record RunRecord
	var errorsJSON, stepsJSON string
	if err := rows.Scan(&record.ID, &record.Name, &record.Success, &record.DurationMs,
		&errorsJSON, &stepsJSON, &record.CreatedAt); err != nil {
		return nil, err
	}
	if errorsJSON != "" {
		if err := json.Unmarshal([]byte(errorsJSON), &record.Errors); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
	}
	if stepsJSON != "" {
		if err := json.Unmarshal([]byte(stepsJSON), &record.Steps); err != nil {
			return nil, fmt.Errorf("decode steps: %w", err)
		}
	}
	return &record, nil
}
