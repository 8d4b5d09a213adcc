// Package sqlite provides a single-file session store for small deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carcamalbot/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
	user_id    INTEGER PRIMARY KEY,
	state      TEXT NOT NULL,
	items      TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
)`

// SessionRepo implements repository.SessionRepository on SQLite
type SessionRepo struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and ensures the schema
func Open(path string) (*SessionRepo, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SessionRepo{db: db}, nil
}

// Close closes the database connection
func (r *SessionRepo) Close() error {
	return r.db.Close()
}

type sessionRow struct {
	UserID    int64  `db:"user_id"`
	State     string `db:"state"`
	Items     string `db:"items"`
	UpdatedAt string `db:"updated_at"`
}

// Load returns the stored session of a user
func (r *SessionRepo) Load(ctx context.Context, userID int64) (*domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT user_id, state, items, updated_at FROM conversation_sessions WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session of user %d: %w", userID, err)
	}

	s := domain.NewSession(row.UserID)
	s.State = domain.State(row.State)
	if row.Items != "" {
		if err := json.Unmarshal([]byte(row.Items), &s.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of user %d: %w", userID, err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, row.UpdatedAt); err == nil {
		s.UpdatedAt = ts
	}
	return s, nil
}

// Save upserts a user's session
func (r *SessionRepo) Save(ctx context.Context, s *domain.Session) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items of user %d: %w", s.UserID, err)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversation_sessions (user_id, state, items, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET state = excluded.state, items = excluded.items, updated_at = excluded.updated_at`,
		s.UserID, string(s.State), string(items), s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save session of user %d: %w", s.UserID, err)
	}
	return nil
}
