package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserProfile is the chat-facing identity row. It is created lazily the
// first time a user sends a message or records a read timestamp.
type UserProfile struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Nickname string    `json:"nickname" db:"nickname"`
	Email    *string   `json:"email,omitempty" db:"email"`
}
