package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carcamalbot/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SessionRepo implements repository.SessionRepository
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

type sessionRow struct {
	UserID    int64     `db:"user_id"`
	State     string    `db:"state"`
	Items     []byte    `db:"items"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Load returns the stored session of a user
func (r *SessionRepo) Load(ctx context.Context, userID int64) (*domain.Session, error) {
	var row sessionRow
	query := `SELECT user_id, state, items, updated_at FROM conversation_sessions WHERE user_id = $1`
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session of user %d: %w", userID, err)
	}

	s := domain.NewSession(row.UserID)
	if row.State != "" {
		s.State = domain.State(row.State)
	}
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &s.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of user %d: %w", userID, err)
		}
	}
	s.UpdatedAt = row.UpdatedAt
	return s, nil
}

// Save upserts a user's session in a single statement
func (r *SessionRepo) Save(ctx context.Context, s *domain.Session) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items of user %d: %w", s.UserID, err)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversation_sessions (user_id, state, items, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET state = EXCLUDED.state, items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`
	if _, err = r.db.ExecContext(ctx, query, s.UserID, string(s.State), items, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save session of user %d: %w", s.UserID, err)
	}
	return nil
}
