package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmationCode is a pending sign-up code. Only the bcrypt hash of the
// code is stored.
type ConfirmationCode struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	CodeHash  string     `db:"code_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
}

func (c *ConfirmationCode) Usable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}
