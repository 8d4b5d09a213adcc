package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/repository"

	"go.uber.org/zap"
)

const (
	menuHeader = "Your groceries list:"
	menuPrompt = "What do you want to do?"
	goodBye    = "Good bye!"
)

// conversation is the in-memory side of a user's session
type conversation struct {
	mu       sync.Mutex
	session  *domain.Session
	active   bool
	lastSeen time.Time
	// evicted is set once the entry is dropped from the service map
	evicted bool
}

// ConversationService drives the groceries list conversation
type ConversationService struct {
	machine *domain.Machine
	repo    repository.SessionRepository
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	convs map[int64]*conversation
}

// NewConversationService creates a new conversation service.
// A zero ttl keeps conversations active until the user exits.
func NewConversationService(machine *domain.Machine, repo repository.SessionRepository, ttl time.Duration, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		machine: machine,
		repo:    repo,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		convs:   make(map[int64]*conversation),
	}
}

func (s *ConversationService) get(userID int64) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[userID]
	if !ok {
		c = &conversation{}
		s.convs[userID] = c
	}
	return c
}

// acquire returns the user's conversation locked. An entry evicted between
// the lookup and the lock is skipped in favour of a fresh one.
func (s *ConversationService) acquire(userID int64) *conversation {
	for {
		c := s.get(userID)
		c.mu.Lock()
		if !c.evicted {
			return c
		}
		c.mu.Unlock()
	}
}

// Active reports whether the user's messages belong to the conversation
func (s *ConversationService) Active(userID int64) bool {
	s.mu.Lock()
	c, ok := s.convs[userID]
	s.mu.Unlock()
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && s.expired(c, s.now()) {
		c.active = false
		s.logger.Info("Conversation expired", zap.Int64("user_id", userID))
	}
	return c.active
}

func (s *ConversationService) expired(c *conversation, now time.Time) bool {
	return s.ttl > 0 && now.Sub(c.lastSeen) > s.ttl
}

// Enter starts or resumes the conversation and renders the menu
func (s *ConversationService) Enter(ctx context.Context, userID int64) []domain.Reply {
	c := s.acquire(userID)
	defer c.mu.Unlock()

	if c.session == nil {
		c.session = s.load(ctx, userID)
	}
	c.active = true
	c.lastSeen = s.now()

	return []domain.Reply{s.entry(ctx, c)}
}

// Handle applies one message of an active conversation
func (s *ConversationService) Handle(ctx context.Context, userID int64, text string) []domain.Reply {
	c := s.acquire(userID)
	defer c.mu.Unlock()

	if !c.active || c.session == nil {
		return nil
	}
	c.lastSeen = s.now()
	sess := c.session

	switch sess.State {
	case domain.StateStart:
		tr, ok := s.machine.Match(domain.StateStart, text)
		if !ok {
			return []domain.Reply{s.menu(sess)}
		}
		return []domain.Reply{s.transition(ctx, c, tr)}

	case domain.StateAdding:
		name := strings.TrimSpace(text)
		if name == "" {
			return []domain.Reply{s.prompt(sess, domain.StateAdding)}
		}
		sess.Add(name)
		reply := domain.TextReply(fmt.Sprintf("%s added to groceries", name))
		return []domain.Reply{reply, s.entry(ctx, c)}

	case domain.StateRemoving:
		name := strings.TrimSpace(text)
		if name == "" {
			return []domain.Reply{s.prompt(sess, domain.StateRemoving)}
		}
		var reply domain.Reply
		if sess.Remove(name) {
			reply = domain.TextReply(fmt.Sprintf("%s removed from groceries", name))
		} else {
			reply = domain.TextReply(fmt.Sprintf("%s was not found in your groceries", name))
		}
		return []domain.Reply{reply, s.entry(ctx, c)}

	default:
		// terminal or unknown state, nothing to route here
		c.active = false
		return nil
	}
}

func (s *ConversationService) transition(ctx context.Context, c *conversation, tr domain.Transition) domain.Reply {
	c.session.State = tr.Target
	if s.machine.IsTerminal(tr.Target) {
		c.active = false
		s.save(ctx, c.session)
		s.logger.Info("Conversation finished", zap.Int64("user_id", c.session.UserID))
		return domain.Reply{Text: tr.Prompt, RemoveKeyboard: true}
	}
	s.save(ctx, c.session)
	return s.prompt(c.session, tr.Target)
}

// prompt asks for an item name, offering the items that make sense for the state
func (s *ConversationService) prompt(sess *domain.Session, st domain.State) domain.Reply {
	var text string
	for _, tr := range s.machine.Transitions(domain.StateStart) {
		if tr.Target == st {
			text = tr.Prompt
			break
		}
	}

	var opts []string
	switch st {
	case domain.StateAdding:
		opts = sess.Absent()
	case domain.StateRemoving:
		opts = sess.Present()
	}

	reply := domain.Reply{Text: text, Keyboard: domain.OptionsKeyboard(opts)}
	if reply.Keyboard == nil {
		reply.RemoveKeyboard = true
	}
	return reply
}

// entry resets the session to the start state, persists it and renders the menu
func (s *ConversationService) entry(ctx context.Context, c *conversation) domain.Reply {
	c.session.State = s.machine.Initial()
	s.save(ctx, c.session)
	return s.menu(c.session)
}

func (s *ConversationService) menu(sess *domain.Session) domain.Reply {
	var b strings.Builder
	if present := sess.Present(); len(present) > 0 {
		b.WriteString(menuHeader)
		for _, name := range present {
			b.WriteString("\n - ")
			b.WriteString(name)
		}
		b.WriteString("\n\n")
	}
	b.WriteString(menuPrompt)

	return domain.Reply{
		Text:     b.String(),
		Keyboard: domain.OptionsKeyboard(s.machine.Labels(domain.StateStart)),
	}
}

func (s *ConversationService) load(ctx context.Context, userID int64) *domain.Session {
	sess, err := s.repo.Load(ctx, userID)
	if err == nil {
		return sess
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Warn("Failed to load session, starting fresh",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	return domain.NewSession(userID)
}

func (s *ConversationService) save(ctx context.Context, sess *domain.Session) {
	sess.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.Error("Failed to save session",
			zap.Int64("user_id", sess.UserID),
			zap.String("state", string(sess.State)),
			zap.Error(err),
		)
	}
}

// ExpireIdle deactivates conversations idle for longer than the ttl and evicts
// them from memory. The stored session is kept and is reloaded on the next
// Enter. Returns the number of active conversations expired.
func (s *ConversationService) ExpireIdle(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, c := range s.convs {
		if !c.mu.TryLock() {
			// busy handling a message, so not idle
			continue
		}
		if c.session != nil && s.expired(c, now) {
			if c.active {
				expired++
			}
			c.active = false
			c.session = nil
		}
		if !c.active && c.session == nil {
			c.evicted = true
			delete(s.convs, id)
		}
		c.mu.Unlock()
	}
	if expired > 0 {
		s.logger.Info("Expired idle conversations", zap.Int("count", expired))
	}
	return expired
}
