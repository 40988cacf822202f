package registration

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Registration binds one order to exactly one hardware identity. The
// hwid is immutable for the lifetime of the row except through the
// support reset path; rows are never deleted, only flipped to revoked.
type Registration struct {
	ID        uuid.UUID `db:"id"`
	OrderID   string    `db:"order_id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	HWID      string    `db:"hwid"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
