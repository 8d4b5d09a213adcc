// Package telegram adapts telebot to the bot's transport interfaces.
package telegram

import (
	"context"
	"fmt"
	"time"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// MessageHandler receives every inbound text message
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.Message)
}

// Command is an entry of the bot menu
type Command struct {
	Name        string
	Description string
}

// Options configures New
type Options struct {
	Token       string
	PollTimeout time.Duration
	// Offline skips the getMe call, for tests
	Offline bool
}

// Bot implements domain.Sender and domain.ChatResolver on top of telebot
type Bot struct {
	bot    *tele.Bot
	logger *zap.Logger

	// ctx is handed to every handler so Stop can cancel the ones in flight
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the telebot client with a long poller
func New(opts Options, logger *zap.Logger) (*Bot, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   opts.Token,
		Poller:  &tele.LongPoller{Timeout: opts.PollTimeout},
		Offline: opts.Offline,
		OnError: func(err error, c tele.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, zap.Int64("user_id", c.Sender().ID))
			}
			logger.Error("Telegram error", fields...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{bot: b, logger: logger, ctx: ctx, cancel: cancel}, nil
}

// Route delivers every text message (commands included) to h
func (b *Bot) Route(h MessageHandler) {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		msg, ok := toMessage(c.Message())
		if !ok {
			return nil
		}
		h.Handle(b.ctx, msg)
		return nil
	})
}

// SetCommands publishes the command menu
func (b *Bot) SetCommands(commands []Command) error {
	list := make([]tele.Command, 0, len(commands))
	for _, c := range commands {
		list = append(list, tele.Command{Text: c.Name, Description: c.Description})
	}
	return b.bot.SetCommands(list)
}

// Start polls for updates until Stop is called
func (b *Bot) Start() {
	b.bot.Start()
}

// Stop stops polling and cancels in-flight handler contexts
func (b *Bot) Stop() {
	b.cancel()
	b.bot.Stop()
}

// Send sends a text reply
func (b *Bot) Send(ctx context.Context, chatID int64, reply domain.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.bot.Send(tele.ChatID(chatID), reply.Text, sendOptions(reply)); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// SendAudio uploads an audio file from disk
func (b *Bot) SendAudio(ctx context.Context, chatID int64, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	audio := &tele.Audio{File: tele.FromDisk(path)}
	if _, err := b.bot.Send(tele.ChatID(chatID), audio); err != nil {
		return fmt.Errorf("failed to send audio to chat %d: %w", chatID, err)
	}
	return nil
}

// Typing shows the typing indicator
func (b *Bot) Typing(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.bot.Notify(tele.ChatID(chatID), tele.Typing)
}

// ChatType looks up the type of a chat
func (b *Bot) ChatType(ctx context.Context, chatID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := b.bot.ChatByID(chatID)
	if err != nil {
		return "", fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}
	return string(chat.Type), nil
}
