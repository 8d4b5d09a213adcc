package testutil

import (
	"context"
	"sync"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestAccess creates an access config with the given admin and users.
// The admin is registered as a user too, as in a real config file.
func NewTestAccess(adminID int64, userIDs ...int64) *domain.Access {
	access := &domain.Access{
		Admin: domain.Admin{ID: adminID},
		Users: make(map[int64]domain.UserEntry),
	}
	if adminID != 0 {
		access.Users[adminID] = domain.UserEntry{}
	}
	for _, id := range userIDs {
		access.Users[id] = domain.UserEntry{}
	}
	return access
}

// NewTestMessage creates a private chat message where chat id equals user id
func NewTestMessage(userID int64, text string) domain.Message {
	return domain.Message{
		UserID:      userID,
		ChatID:      userID,
		ChatType:    domain.ChatPrivate,
		Text:        text,
		DisplayName: "Tester",
	}
}

// MemorySessionRepository is an in-memory SessionRepository for engine tests
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[int64]*domain.Session
}

// NewMemorySessionRepository creates an empty in-memory store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[int64]*domain.Session)}
}

func (r *MemorySessionRepository) Load(_ context.Context, userID int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UserID] = s.Clone()
	return nil
}
