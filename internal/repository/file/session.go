package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"carcamalbot/internal/domain"
)

// SessionRepo implements repository.SessionRepository with one JSON file per user
type SessionRepo struct {
	dir string
}

// NewSessionRepo creates the storage directory if needed
func NewSessionRepo(dir string) (*SessionRepo, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir %s: %w", dir, err)
	}
	return &SessionRepo{dir: dir}, nil
}

func (r *SessionRepo) path(userID int64) string {
	return filepath.Join(r.dir, strconv.FormatInt(userID, 10)+".json")
}

// Load reads a user's session
func (r *SessionRepo) Load(_ context.Context, userID int64) (*domain.Session, error) {
	data, err := os.ReadFile(r.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session of user %d: %w", userID, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session of user %d: %w", userID, err)
	}
	s.UserID = userID
	if s.Items == nil {
		s.Items = make(map[string]bool)
	}
	if s.State == "" {
		s.State = domain.StateStart
	}
	return &s, nil
}

// Save atomically replaces a user's session file
func (r *SessionRepo) Save(_ context.Context, s *domain.Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session of user %d: %w", s.UserID, err)
	}
	return writeFileAtomic(r.path(s.UserID), data, 0o600)
}
