// Package journal records every executed history command in an append-only
// SQLite table. The journal is an audit trail: it is never read back to
// rebuild the history store.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one journaled command.
type Entry struct {
	ID        string    // Unique identifier (UUID), shared with the trace record
	SessionID string    // Engine session that ran the command
	Seq       int64     // Position of the command within its session (1-based)
	Operation string    // declare, remove, valid, energy_set, energy_get, equal, or "invalid" for unparsable lines
	Args      []string  // Command arguments as typed
	Status    string    // "success" or "error"
	ErrorType string    // Error classification when Status == "error"
	CreatedAt time.Time // Timestamp of execution
}

// Journal defines the operations on a command journal.
type Journal interface {
	// Record appends an entry. ID and CreatedAt are filled in when empty.
	Record(ctx context.Context, entry *Entry) error

	// Count returns the total number of journaled commands.
	Count(ctx context.Context) (int64, error)

	// ListSession returns the entries of one session ordered by Seq.
	ListSession(ctx context.Context, sessionID string) ([]*Entry, error)

	// Close releases the database connection.
	Close() error
}

// Compile-time interface check
var _ Journal = (*SQLiteJournal)(nil)

// ErrEmptySession indicates a ListSession call without a session ID.
var ErrEmptySession = errors.New("session id cannot be empty")

// argSeparator joins arguments in the args column; arguments never contain spaces.
const argSeparator = " "

// SQLiteJournal implements Journal using SQLite as the backend.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) a journal database.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

// initSchema creates the database schema if it doesn't exist.
func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		operation TEXT NOT NULL,
		args TEXT,
		status TEXT NOT NULL,
		error_type TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_session ON operations(session_id, seq);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record appends an entry to the journal.
func (j *SQLiteJournal) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO operations (id, session_id, seq, operation, args, status, error_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.Seq,
		entry.Operation,
		strings.Join(entry.Args, argSeparator),
		entry.Status,
		entry.ErrorType,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}

	return nil
}

// Count returns the total number of journaled commands.
func (j *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return count, nil
}

// ListSession returns the entries of one session ordered by Seq.
func (j *SQLiteJournal) ListSession(ctx context.Context, sessionID string) ([]*Entry, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	query := `
		SELECT id, session_id, seq, operation, args, status, error_type, created_at
		FROM operations
		WHERE session_id = ?
		ORDER BY seq
	`

	rows, err := j.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		var e Entry
		var args, errorType sql.NullString

		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Seq,
			&e.Operation,
			&args,
			&e.Status,
			&errorType,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		if args.Valid && args.String != "" {
			e.Args = strings.Split(args.String, argSeparator)
		}
		e.ErrorType = errorType.String
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return entries, nil
}

// Close releases the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
