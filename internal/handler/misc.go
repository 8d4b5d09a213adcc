package handler

import (
	"context"
	"fmt"
	"strings"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
)

// handleFortune handles /fortune command
func (h *Handler) handleFortune(ctx context.Context, msg domain.Message) error {
	text, err := h.fortune.Fortune(ctx)
	if err != nil {
		h.logger.Error("Failed to get fortune", zap.Error(err))
		return h.reply(ctx, msg, "Failed to get a fortune")
	}
	return h.reply(ctx, msg, text)
}

// handleMenu handles /menu command
func (h *Handler) handleMenu(ctx context.Context, msg domain.Message) error {
	return h.sender.Send(ctx, msg.ChatID, domain.Reply{
		Text:     "Pick an option",
		Keyboard: [][]string{{"A", "B", "C", "D"}},
	})
}

func (h *Handler) helpHandler(reg *Registry) func(context.Context, domain.Message) error {
	return func(ctx context.Context, msg domain.Message) error {
		var b strings.Builder
		b.WriteString("Available commands:")
		for _, cmd := range reg.Commands() {
			fmt.Fprintf(&b, "\n/%s - %s", cmd.Name, cmd.Description)
		}
		return h.reply(ctx, msg, b.String())
	}
}
