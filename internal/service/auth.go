package service

import (
	"context"
	"fmt"
	"sync"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/repository"

	"go.uber.org/zap"
)

// AuthService answers membership questions over the access config and
// records chat ids learned at runtime
type AuthService struct {
	mu       sync.RWMutex
	access   *domain.Access
	repo     repository.AccessRepository
	resolver domain.ChatResolver
	logger   *zap.Logger

	// persistMu orders snapshot and write so a stale snapshot never lands last
	persistMu sync.Mutex
}

// NewAuthService creates a new auth service over an already loaded access config
func NewAuthService(access *domain.Access, repo repository.AccessRepository, resolver domain.ChatResolver, logger *zap.Logger) *AuthService {
	if access == nil {
		access = &domain.Access{}
	}
	access = access.Clone()
	return &AuthService{
		access:   access,
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// IsRegistered checks if user is listed in the access config
func (s *AuthService) IsRegistered(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.access.Users[userID]
	return ok
}

// IsAdmin checks if user is the configured admin
func (s *AuthService) IsAdmin(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access.Admin.ID != 0 && s.access.Admin.ID == userID
}

// IsPrivateChat asks the transport for the chat type, falling back to the
// type carried by the message when the lookup fails
func (s *AuthService) IsPrivateChat(ctx context.Context, msg domain.Message) bool {
	if s.resolver != nil {
		chatType, err := s.resolver.ChatType(ctx, msg.ChatID)
		if err == nil {
			return chatType == domain.ChatPrivate
		}
		s.logger.Warn("Failed to resolve chat type, using message chat type",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err),
		)
	}
	return msg.ChatType == domain.ChatPrivate
}

// User returns the user as seen by the access config
func (s *AuthService) User(userID int64) domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, registered := s.access.Users[userID]
	u := domain.User{
		ID:         userID,
		Registered: registered,
		Admin:      s.access.Admin.ID != 0 && s.access.Admin.ID == userID,
		ChatID:     entry.ChatID,
	}
	if u.Admin && s.access.Admin.ChatID != 0 {
		u.ChatID = s.access.Admin.ChatID
	}
	return u
}

// AdminChatID returns the admin chat id once it is known
func (s *AuthService) AdminChatID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := s.access.Admin.ChatID
	return id, id != 0
}

// Snapshot returns a deep copy of the current access config
func (s *AuthService) Snapshot() *domain.Access {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access.Clone()
}

// RecordChat stores the chat id of a known user (and of the admin) and
// persists the config. Unknown users are not added.
func (s *AuthService) RecordChat(ctx context.Context, userID, chatID int64) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	changed := false
	if s.access.Admin.ID != 0 && s.access.Admin.ID == userID && s.access.Admin.ChatID != chatID {
		s.access.Admin.ChatID = chatID
		changed = true
	}
	if entry, ok := s.access.Users[userID]; ok && entry.ChatID != chatID {
		entry.ChatID = chatID
		s.access.Users[userID] = entry
		changed = true
	}
	snapshot := s.access.Clone()
	s.mu.Unlock()

	if !changed || s.repo == nil {
		return nil
	}
	if err := s.repo.Persist(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist chat id of user %d: %w", userID, err)
	}
	s.logger.Info("Recorded chat id", zap.Int64("user_id", userID), zap.Int64("chat_id", chatID))
	return nil
}
