package chat

import (
	"time"

	"BandChat/server/internal/models"
)

// DividerIndex computes where the unread divider belongs: the first index
// whose message was created strictly after lastRead. A nil lastRead means
// the user has never read the chat, so every message is unread. The second
// return is false when nothing is newer ("all caught up").
func DividerIndex(messages []models.Message, lastRead *time.Time) (int, bool) {
	for i, msg := range messages {
		if lastRead == nil || msg.CreatedAt.After(*lastRead) {
			return i, true
		}
	}
	return -1, false
}
