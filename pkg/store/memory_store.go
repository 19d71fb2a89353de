package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"rakhaai/pkg/domain"
)

// MemoryStore keeps everything in-process. Used by tests and local runs
// without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	chats    map[string]domain.Chat
	messages map[string][]domain.Message // chat ID -> insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		chats:    make(map[string]domain.Chat),
		messages: make(map[string][]domain.Message),
	}
}

// SaveUser stores or replaces a user, keeping the email index current.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// CreateChat stores a new chat.
func (m *MemoryStore) CreateChat(c domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[c.ID] = c
	return nil
}

// GetChat retrieves one chat by ID.
func (m *MemoryStore) GetChat(id string) (domain.Chat, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	return c, ok, nil
}

// ListChatsByOwner returns the owner's chats, newest first.
func (m *MemoryStore) ListChatsByOwner(ownerID string) ([]domain.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chats := make([]domain.Chat, 0)
	for _, c := range m.chats {
		if c.OwnerID == ownerID {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return strings.Compare(chats[i].ID, chats[j].ID) > 0
		}
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	return chats, nil
}

// UpdateChatTitle renames a chat.
func (m *MemoryStore) UpdateChatTitle(id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return ErrChatNotFound
	}
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
	m.chats[id] = c
	return nil
}

// DeleteChat removes the chat and its message history.
func (m *MemoryStore) DeleteChat(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[id]; !ok {
		return ErrChatNotFound
	}
	delete(m.chats, id)
	delete(m.messages, id)
	return nil
}

// AppendMessage records one immutable turn. The chat must exist.
func (m *MemoryStore) AppendMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[msg.ChatID]; !ok {
		return ErrChatNotFound
	}
	m.messages[msg.ChatID] = append(m.messages[msg.ChatID], msg)
	return nil
}

// RecentMessages returns up to limit most recent messages, oldest first.
// Insertion order already matches creation order, so this is a suffix.
func (m *MemoryStore) RecentMessages(chatID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.messages[chatID]
	start := len(history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]domain.Message, len(history)-start)
	copy(out, history[start:])
	return out, nil
}

// ListMessages returns the full chat history, oldest first.
func (m *MemoryStore) ListMessages(chatID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.messages[chatID]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out, nil
}

// CountMessages returns the number of messages in a chat, both senders.
func (m *MemoryStore) CountMessages(chatID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[chatID]), nil
}

var _ Store = (*MemoryStore)(nil)
