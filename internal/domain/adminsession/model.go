package adminsession

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-tracked proof that an administrator completed
// the second factor. Expiry is enforced against this row, never against
// anything the client declares.
type Session struct {
	Token      string    `db:"token"`
	UserID     uuid.UUID `db:"user_id"`
	AdminEmail string    `db:"admin_email"`
	ExpiresAt  time.Time `db:"expires_at"`
	Revoked    bool      `db:"revoked"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *Session) IsUsable(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}
