package handler

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
)

// Conversation is the stateful side of the bot
type Conversation interface {
	Active(userID int64) bool
	Handle(ctx context.Context, userID int64, text string) []domain.Reply
}

// Dispatcher routes every inbound message either to the active conversation
// of its sender or to a registered command
type Dispatcher struct {
	conv     Conversation
	registry *Registry
	sender   domain.Sender
	logger   *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(conv Conversation, registry *Registry, sender domain.Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		conv:     conv,
		registry: registry,
		sender:   sender,
		logger:   logger,
	}
}

// Handle processes one message. It never panics and never returns an error:
// failures are logged so other users keep being served.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.Message) {
	log := d.logger.With(zap.Int64("user_id", msg.UserID), zap.Int64("chat_id", msg.ChatID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in handler",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if d.conv.Active(msg.UserID) {
		replies := d.conv.Handle(ctx, msg.UserID, msg.Text)
		if err := sendAll(ctx, d.sender, msg.ChatID, replies); err != nil {
			log.Error("Failed to send conversation reply", zap.Error(err))
		}
		return
	}

	name, _, ok := ParseCommand(msg.Text)
	if !ok {
		log.Debug("Ignored plain text")
		return
	}

	err := d.registry.Dispatch(ctx, name, msg)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnknownCommand):
		log.Debug("Ignored unknown command", zap.String("command", name))
	default:
		log.Error("Command failed", zap.String("command", name), zap.Error(err))
	}
}

func sendAll(ctx context.Context, sender domain.Sender, chatID int64, replies []domain.Reply) error {
	for _, r := range replies {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		if err := sender.Send(ctx, chatID, r); err != nil {
			return err
		}
	}
	return nil
}
