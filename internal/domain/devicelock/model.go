package devicelock

import "time"

// DeviceLock holds the one-way hash of the device secret issued for a
// hardware identity. The plaintext secret is returned exactly once at
// activation and is never stored; a revoked lock can never be
// un-revoked.
type DeviceLock struct {
	HWID          string     `db:"hwid"`
	OrderID       string     `db:"order_id"`
	Email         string     `db:"email"`
	SecretHash    string     `db:"secret_hash"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason *string    `db:"revoked_reason"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (l *DeviceLock) IsRevoked() bool {
	return l.RevokedAt != nil
}
