package service

import (
	"time"

	"go.uber.org/zap"
)

// IdleExpirer evicts conversations idle as of now
type IdleExpirer interface {
	ExpireIdle(now time.Time) int
}

// CleanupService handles periodic housekeeping
type CleanupService struct {
	expirer IdleExpirer
	logger  *zap.Logger
	now     func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(expirer IdleExpirer, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		expirer: expirer,
		logger:  logger,
		now:     time.Now,
	}
}

// CleanupIdleConversations deactivates abandoned conversations
func (s *CleanupService) CleanupIdleConversations() int {
	s.logger.Debug("Starting cleanup of idle conversations")

	n := s.expirer.ExpireIdle(s.now())

	s.logger.Debug("Cleanup completed", zap.Int("expired", n))
	return n
}
