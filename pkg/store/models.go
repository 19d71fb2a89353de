package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string
	Provider     string `gorm:"not null"`
	ProviderID   string
	AvatarURL    string
	Plan         string         `gorm:"not null"`
	Profile      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time
}

type ChatModel struct {
	ID        string    `gorm:"primaryKey"`
	OwnerID   string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

type MessageModel struct {
	ID        string `gorm:"primaryKey"`
	ChatID    string `gorm:"not null;index"`
	Sender    string `gorm:"not null"`
	Text      string `gorm:"type:text;not null"`
	PhotoPath string
	CreatedAt time.Time `gorm:"not null;index"`
}
