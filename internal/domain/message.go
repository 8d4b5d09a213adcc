package domain

import "context"

// ChatPrivate is the chat type of one-to-one conversations
const ChatPrivate = "private"

// Message is an inbound text message
type Message struct {
	UserID      int64
	ChatID      int64
	ChatType    string
	Text        string
	DisplayName string
}

// Reply is an outbound text message
type Reply struct {
	Text string
	// Keyboard holds rows of quick-reply button labels
	Keyboard       [][]string
	RemoveKeyboard bool
	Markdown       bool
}

// Sender delivers replies to a chat
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
	SendAudio(ctx context.Context, chatID int64, path string) error
	Typing(ctx context.Context, chatID int64) error
}

// ChatResolver looks up chat metadata on the messaging platform
type ChatResolver interface {
	ChatType(ctx context.Context, chatID int64) (string, error)
}

// TextReply builds a plain reply
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// OptionsKeyboard places every option on its own row
func OptionsKeyboard(options []string) [][]string {
	if len(options) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []string{opt})
	}
	return rows
}
