package telegram

import (
	"carcamalbot/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// replyButtons builds a reply keyboard from rows of text
func replyButtons(rows [][]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// sendOptions translates a reply into telebot send options
func sendOptions(reply domain.Reply) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if reply.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	switch {
	case len(reply.Keyboard) > 0:
		opts.ReplyMarkup = replyButtons(reply.Keyboard)
	case reply.RemoveKeyboard:
		opts.ReplyMarkup = &tele.ReplyMarkup{RemoveKeyboard: true}
	}
	return opts
}

// toMessage converts an inbound telebot message
func toMessage(m *tele.Message) (domain.Message, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return domain.Message{}, false
	}
	return domain.Message{
		UserID:      m.Sender.ID,
		ChatID:      m.Chat.ID,
		ChatType:    string(m.Chat.Type),
		Text:        m.Text,
		DisplayName: m.Sender.FirstName,
	}, true
}
