package repository

import (
	"context"

	"carcamalbot/internal/domain"
)

// SessionRepository defines durable per-user conversation storage.
// Save must be all-or-nothing for a single user.
type SessionRepository interface {
	// Load returns domain.ErrSessionNotFound when nothing is stored for the user
	Load(ctx context.Context, userID int64) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
}

// AccessRepository defines access config operations
type AccessRepository interface {
	Load(ctx context.Context) (*domain.Access, error)
	Persist(ctx context.Context, access *domain.Access) error
}
