package handler

import (
	"context"

	"carcamalbot/internal/domain"
)

// handleGroceries enters the groceries list conversation
func (h *Handler) handleGroceries(ctx context.Context, msg domain.Message) error {
	replies := h.convService.Enter(ctx, msg.UserID)
	return sendAll(ctx, h.sender, msg.ChatID, replies)
}
