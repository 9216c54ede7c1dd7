package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
	api_key        TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	daily_limit    INTEGER NOT NULL,
	requests_today INTEGER NOT NULL DEFAULT 0,
	total_requests INTEGER NOT NULL DEFAULT 0,
	last_request   INTEGER NOT NULL DEFAULT 0,
	active         INTEGER NOT NULL DEFAULT 1,
	created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);
`

// SQLiteStore persists user records in a SQLite database so quota state
// survives restarts. SQLite has a single writer, so the connection pool
// is pinned to one connection.
type SQLiteStore struct {
	db *sql.DB

	getStmt  *sql.Stmt
	putStmt  *sql.Stmt
	listStmt *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the user database at path.
// The database runs in WAL mode with the given busy timeout.
func NewSQLiteStore(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store path cannot be empty")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening user database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(userSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing user schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT api_key, user_id, daily_limit, requests_today, total_requests, last_request, active, created_at
		FROM users
		WHERE api_key = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing get statement: %w", err)
	}

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO users (api_key, user_id, daily_limit, requests_today, total_requests, last_request, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (api_key) DO UPDATE SET
			user_id = excluded.user_id,
			daily_limit = excluded.daily_limit,
			requests_today = excluded.requests_today,
			total_requests = excluded.total_requests,
			last_request = excluded.last_request,
			active = excluded.active
	`)
	if err != nil {
		return fmt.Errorf("preparing put statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT api_key, user_id, daily_limit, requests_today, total_requests, last_request, active, created_at
		FROM users
		ORDER BY user_id
	`)
	if err != nil {
		return fmt.Errorf("preparing list statement: %w", err)
	}

	return nil
}

// Get returns the user holding the credential, or nil when no user does.
func (s *SQLiteStore) Get(ctx context.Context, apiKey string) (*User, error) {
	user, err := scanUser(s.getStmt.QueryRowContext(ctx, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// Put inserts or replaces the user record. The original created_at of an
// existing row is preserved.
func (s *SQLiteStore) Put(ctx context.Context, user *User) error {
	if user.APIKey == "" {
		return fmt.Errorf("user credential cannot be empty")
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var lastRequest int64
	if !user.LastRequest.IsZero() {
		lastRequest = user.LastRequest.Unix()
	}

	_, err := s.putStmt.ExecContext(ctx,
		user.APIKey,
		user.UserID,
		user.DailyLimit,
		user.RequestsToday,
		user.TotalRequests,
		lastRequest,
		boolToInt(user.Active),
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving user %s: %w", user.UserID, err)
	}
	return nil
}

// List returns all users ordered by user id.
func (s *SQLiteStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.listStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		user        User
		lastRequest int64
		active      int
		createdAt   int64
	)
	err := row.Scan(
		&user.APIKey,
		&user.UserID,
		&user.DailyLimit,
		&user.RequestsToday,
		&user.TotalRequests,
		&lastRequest,
		&active,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	user.LastRequest = time.Unix(lastRequest, 0)
	user.Active = active != 0
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
