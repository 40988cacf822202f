package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionDeviceReset       = "admin.device.reset"
	ActionRegistrationsList = "admin.registrations.list"
	Action2FASuccess        = "2fa_verification_success"
	Action2FAFailed         = "2fa_verification_failed"
)

type Entry struct {
	ID         uuid.UUID       `db:"id"`
	AdminEmail string          `db:"admin_email"`
	Action     string          `db:"action"`
	Resource   string          `db:"resource"`
	Details    json.RawMessage `db:"details"`
	IPAddress  string          `db:"ip_address"`
	UserAgent  string          `db:"user_agent"`
	CreatedAt  time.Time       `db:"created_at"`
}
