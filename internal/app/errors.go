package app

import "errors"

// Sentinel errors handlers translate into HTTP statuses.
var (
	// ErrChatNotFound covers both a missing chat and a chat owned by
	// someone else, so callers cannot probe for other users' chat IDs.
	ErrChatNotFound = errors.New("Chat not found")

	// ErrInvalidCredentials is deliberately identical for unknown email
	// and wrong password.
	ErrInvalidCredentials = errors.New("Email atau password salah")

	ErrEmailTaken     = errors.New("email already registered")
	ErrEmptyTurn      = errors.New("message or photo is required")
	ErrInvalidSession = errors.New("invalid or expired session")
)
