// Package history persists execution outcomes in SQLite so the CLI and
// future reflections can inspect what actually ran.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Execution is one recorded task execution.
type Execution struct {
	ID           int64
	Task         string
	OpID         string
	Status       string
	ErrorMessage string
	Duration     time.Duration
	Confidence   float64
	Timestamp    time.Time
}

// Stats aggregates the recorded history.
type Stats struct {
	TotalExecutions int
	Completed       int
	Failed          int
	SuccessRate     float64
}

// Store manages the SQLite execution-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the database at dbPath and initializes the
// schema. Use ":memory:" for an ephemeral store.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead
	// of failing during concurrent initialization.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on lock
// errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordExecution inserts one execution row.
func (s *Store) RecordExecution(ctx context.Context, exec *Execution) error {
	query := `INSERT INTO executions
		(task, op_id, status, error_message, duration_ms, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`

	var errMsg interface{}
	if exec.ErrorMessage != "" {
		errMsg = exec.ErrorMessage
	}

	result, err := s.db.ExecContext(ctx, query,
		exec.Task,
		exec.OpID,
		exec.Status,
		errMsg,
		exec.Duration.Milliseconds(),
		exec.Confidence,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get insert id: %w", err)
	}
	exec.ID = id
	return nil
}

// RecentExecutions returns up to limit executions, newest first.
func (s *Store) RecentExecutions(ctx context.Context, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, task, op_id, status, error_message, duration_ms, confidence, created_at
		FROM executions ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var execs []Execution
	for rows.Next() {
		var e Execution
		var errMsg sql.NullString
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Task, &e.OpID, &e.Status, &errMsg, &durationMs, &e.Confidence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		e.ErrorMessage = errMsg.String
		e.Duration = time.Duration(durationMs) * time.Millisecond
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return execs, nil
}

// Stats aggregates totals and the success rate over all recorded
// executions.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM executions`

	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.TotalExecutions, &stats.Completed, &stats.Failed); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.TotalExecutions)
	}
	return stats, nil
}
