package handler

import (
	"context"
	"fmt"
	"strings"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(ctx context.Context, msg domain.Message) error {
	user := h.authService.User(msg.UserID)

	h.logger.Info("User started bot",
		zap.Int64("user_id", msg.UserID),
		zap.String("name", msg.DisplayName),
		zap.Bool("registered", user.Registered),
		zap.Bool("admin", user.Admin),
	)

	if user.Admin || user.Registered {
		if err := h.authService.RecordChat(ctx, msg.UserID, msg.ChatID); err != nil {
			h.logger.Error("Failed to record chat id", zap.Int64("user_id", msg.UserID), zap.Error(err))
		}
		if user.Admin {
			return h.reply(ctx, msg, "Started bot as admin")
		}
		return h.reply(ctx, msg, "Started bot as user")
	}

	if err := h.reply(ctx, msg, "Started bot as a new user, some services will be disabled"); err != nil {
		return err
	}

	adminChat, ok := h.authService.AdminChatID()
	if !ok {
		return nil
	}
	notice := fmt.Sprintf("[%s](tg://user?id=%d) with id:%d has /start ed the bot",
		escapeMarkdown(msg.DisplayName), msg.UserID, msg.UserID)
	if err := h.sender.Send(ctx, adminChat, domain.Reply{Text: notice, Markdown: true}); err != nil {
		return fmt.Errorf("failed to notify admin: %w", err)
	}
	return h.reply(ctx, msg, "An admin has been notified")
}

// handleStatus handles /status command
func (h *Handler) handleStatus(ctx context.Context, msg domain.Message) error {
	data, err := yaml.Marshal(h.authService.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode access config: %w", err)
	}
	return h.reply(ctx, msg, string(data))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
