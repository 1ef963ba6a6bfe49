package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousNickname is used whenever a sender's profile row is missing,
// including realtime payloads that arrive before the nickname join.
const AnonymousNickname = "Anonymous"

// GlobalChannel is the single shared band channel.
const GlobalChannel = "global"

type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Channel   string    `json:"channel" db:"channel"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Nickname  string    `json:"nickname"`
}

// DisplayName returns the joined nickname, falling back to Anonymous for
// payloads that were appended without the profile join.
func (m Message) DisplayName() string {
	if m.Nickname == "" {
		return AnonymousNickname
	}
	return m.Nickname
}
