package store

import (
	"errors"

	"rakhaai/pkg/domain"
)

// ErrChatNotFound is returned by message operations targeting a chat that
// does not exist.
var ErrChatNotFound = errors.New("chat not found")

// Store defines persistence operations for users, chats, and messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// chats
	CreateChat(domain.Chat) error
	GetChat(id string) (domain.Chat, bool, error)
	// ListChatsByOwner returns the owner's chats newest first.
	ListChatsByOwner(ownerID string) ([]domain.Chat, error)
	UpdateChatTitle(id, title string) error
	// DeleteChat removes the chat and all of its messages.
	DeleteChat(id string) error

	// messages
	AppendMessage(domain.Message) error
	// RecentMessages returns up to limit most recent messages in
	// chronological (oldest-first) order.
	RecentMessages(chatID string, limit int) ([]domain.Message, error)
	ListMessages(chatID string) ([]domain.Message, error)
	CountMessages(chatID string) (int, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
