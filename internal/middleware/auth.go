package middleware

import (
	"context"

	"carcamalbot/internal/domain"

	"go.uber.org/zap"
)

// Policy answers authorization questions about a message sender
type Policy interface {
	IsRegistered(userID int64) bool
	IsAdmin(userID int64) bool
	IsPrivateChat(ctx context.Context, msg domain.Message) bool
}

const (
	unauthorizedText = "Unauthorized, please send command /start and wait for an admin to accept your request"
	privateOnlyText  = "This command is for private chats only"
)

// Restricted allows registered users only
func Restricted(policy Policy, sender domain.Sender, logger *zap.Logger) Guard {
	return Guard{
		Name: "restricted",
		Allow: func(_ context.Context, msg domain.Message) bool {
			return policy.IsRegistered(msg.UserID)
		},
		Reject: func(ctx context.Context, msg domain.Message) error {
			logger.Info("Unauthorized access denied",
				zap.Int64("user_id", msg.UserID),
				zap.NamedError("reason", domain.ErrUnauthorized),
			)
			return sender.Send(ctx, msg.ChatID, domain.Reply{Text: unauthorizedText, Markdown: true})
		},
	}
}

// AdminOnly allows the admin only and drops everyone else silently
func AdminOnly(policy Policy, logger *zap.Logger) Guard {
	return Guard{
		Name: "admin",
		Allow: func(_ context.Context, msg domain.Message) bool {
			if policy.IsAdmin(msg.UserID) {
				return true
			}
			logger.Debug("Dropped admin command",
				zap.Int64("user_id", msg.UserID),
				zap.NamedError("reason", domain.ErrAdminOnly),
			)
			return false
		},
	}
}

// PrivateOnly allows one-to-one chats only
func PrivateOnly(policy Policy, sender domain.Sender, logger *zap.Logger) Guard {
	return Guard{
		Name: "private",
		Allow: func(ctx context.Context, msg domain.Message) bool {
			return policy.IsPrivateChat(ctx, msg)
		},
		Reject: func(ctx context.Context, msg domain.Message) error {
			logger.Info("Rejected command outside private chat",
				zap.Int64("user_id", msg.UserID),
				zap.Int64("chat_id", msg.ChatID),
				zap.NamedError("reason", domain.ErrWrongChatType),
			)
			return sender.Send(ctx, msg.ChatID, domain.TextReply(privateOnlyText))
		},
	}
}
