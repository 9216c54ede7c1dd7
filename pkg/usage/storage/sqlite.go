package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"meridian-hq/meridian/pkg/usage"
)

// Schema creates the usage ledger table and its query indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id           TEXT PRIMARY KEY,
	request_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	provider     TEXT NOT NULL,
	model        TEXT NOT NULL,
	mapped_model TEXT NOT NULL,
	streaming    INTEGER NOT NULL,
	transport    TEXT NOT NULL DEFAULT '',
	status_code  INTEGER NOT NULL,
	error_kind   TEXT NOT NULL DEFAULT '',
	latency_ms   INTEGER NOT NULL,
	timestamp    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_user_id ON usage_records(user_id);
CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_records(provider);
`

// SQLiteStorage persists usage records in a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger

	saveStmt    *sql.Stmt
	cleanupStmt *sql.Stmt
}

// NewSQLiteStorage opens (creating if needed) the ledger database at
// path. The database runs in WAL mode with the given busy timeout.
func NewSQLiteStorage(path string, busyTimeout time.Duration) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite ledger path cannot be empty")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	// Ledger writes come from a single recorder goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		logger: slog.Default().With("component", "usage.storage.sqlite"),
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite usage ledger initialized", "path", path)
	return s, nil
}

func (s *SQLiteStorage) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (
			id, request_id, user_id, provider, model, mapped_model,
			streaming, transport, status_code, error_kind, latency_ms, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing save statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`DELETE FROM usage_records WHERE timestamp < ?`)
	if err != nil {
		return fmt.Errorf("preparing cleanup statement: %w", err)
	}

	return nil
}

// Save persists one usage record.
func (s *SQLiteStorage) Save(ctx context.Context, record *usage.Record) error {
	streaming := 0
	if record.Streaming {
		streaming = 1
	}

	_, err := s.saveStmt.ExecContext(ctx,
		record.ID, record.RequestID, record.UserID,
		record.Provider, record.Model, record.MappedModel,
		streaming, record.Transport, record.StatusCode,
		record.ErrorKind, record.LatencyMs, record.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving usage record: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *SQLiteStorage) List(ctx context.Context, limit int) ([]*usage.Record, error) {
	query := `
		SELECT id, request_id, user_id, provider, model, mapped_model,
		       streaming, transport, status_code, error_kind, latency_ms, timestamp
		FROM usage_records
		ORDER BY timestamp DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	defer rows.Close()

	records := []*usage.Record{}
	for rows.Next() {
		var rec usage.Record
		var streaming int
		var ts int64
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.UserID,
			&rec.Provider, &rec.Model, &rec.MappedModel,
			&streaming, &rec.Transport, &rec.StatusCode,
			&rec.ErrorKind, &rec.LatencyMs, &ts,
		); err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		rec.Streaming = streaming != 0
		rec.Timestamp = time.UnixMilli(ts)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage records: %w", err)
	}
	return records, nil
}

// Cleanup deletes records older than the cutoff and returns how many
// were removed.
func (s *SQLiteStorage) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning usage records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned records: %w", err)
	}
	return deleted, nil
}

// Close releases the database connection.
func (s *SQLiteStorage) Close() error {
	if s.saveStmt != nil {
		s.saveStmt.Close()
	}
	if s.cleanupStmt != nil {
		s.cleanupStmt.Close()
	}
	return s.db.Close()
}
