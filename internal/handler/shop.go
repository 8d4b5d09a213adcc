package handler

import (
	"context"
	"fmt"

	"carcamalbot/internal/domain"
)

// handleShopAdd handles /shopadd <item>
func (h *Handler) handleShopAdd(ctx context.Context, msg domain.Message) error {
	_, item, _ := ParseCommand(msg.Text)

	text := "usage: /shopadd <item>"
	if item != "" {
		h.shopService.Add(msg.UserID, item)
		text = fmt.Sprintf("shoplist: added %s", item)
	}
	return h.sender.Send(ctx, msg.ChatID, domain.Reply{Text: text, RemoveKeyboard: true})
}

// handleShopList handles /shoplist
func (h *Handler) handleShopList(ctx context.Context, msg domain.Message) error {
	if err := h.reply(ctx, msg, "shoplist: your shoplist contains:"); err != nil {
		return err
	}
	for _, item := range h.shopService.Items(msg.UserID) {
		if err := h.reply(ctx, msg, " * "+item); err != nil {
			return err
		}
	}
	return h.reply(ctx, msg, "shoplist: done")
}
