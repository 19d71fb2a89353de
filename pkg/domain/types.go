package domain

import (
	"encoding/json"
	"time"
)

// Plan is the subscription tier controlling per-chat message quotas.
type Plan string

const (
	PlanFree    Plan = "Free"
	PlanPro     Plan = "Pro"
	PlanPremium Plan = "Premium"
)

// Provider identifies how an account was created.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGithub Provider = "github"
)

// Sender distinguishes the two message authors inside a chat.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     Provider  `json:"provider"`
	ProviderID   string    `json:"providerId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Plan         Plan      `json:"plan"`
	// Profile keeps the raw userinfo payload from the OAuth provider that
	// last authenticated this account. Empty for local signups.
	Profile   json.RawMessage `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Chat struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one immutable turn of a chat. PhotoPath holds the object
// storage key of an attached photo, empty when the turn is text only.
// PhotoURL is filled on the way out by handlers when the photo store can
// presign a download link; it is never persisted.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"message"`
	PhotoPath string    `json:"photoPath,omitempty"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
