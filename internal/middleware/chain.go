// Package middleware composes authorization guards around command handlers.
package middleware

import (
	"context"
	"fmt"

	"carcamalbot/internal/domain"
)

// HandlerFunc handles one inbound message
type HandlerFunc func(ctx context.Context, msg domain.Message) error

// Guard is a named predicate with a rejection action run when it fails
type Guard struct {
	Name  string
	Allow func(ctx context.Context, msg domain.Message) bool
	// Reject may be nil for silent guards
	Reject func(ctx context.Context, msg domain.Message) error
}

// Stack is an ordered list of guards
type Stack []Guard

// Chain builds a guard stack evaluated in declared order
func Chain(guards ...Guard) Stack {
	return append(Stack(nil), guards...)
}

// Then wraps h so it only runs when every guard allows the message.
// The first failing guard rejects and stops evaluation.
func (s Stack) Then(h HandlerFunc) HandlerFunc {
	guards := append(Stack(nil), s...)
	return func(ctx context.Context, msg domain.Message) error {
		for _, g := range guards {
			if g.Allow(ctx, msg) {
				continue
			}
			if g.Reject == nil {
				return nil
			}
			if err := g.Reject(ctx, msg); err != nil {
				return fmt.Errorf("%s guard rejection for user %d: %w", g.Name, msg.UserID, err)
			}
			return nil
		}
		return h(ctx, msg)
	}
}
