package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadTimestamp tracks a user's last chat read. At most one row exists per
// user; writes use update-if-exists-else-insert semantics.
type ReadTimestamp struct {
	ID         int64     `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	LastReadAt time.Time `json:"last_read_at" db:"last_read_at"`
}
