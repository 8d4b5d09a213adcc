package domain

import "errors"

var (
	// ErrSessionNotFound is returned by session stores when nothing is saved for a user
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownCommand is returned when no handler is registered for a command
	ErrUnknownCommand = errors.New("unknown command")

	ErrUnauthorized  = errors.New("user is not registered")
	ErrAdminOnly     = errors.New("command is restricted to the admin")
	ErrWrongChatType = errors.New("command is for private chats only")
)
