package devicelock

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("device lock not found")

type Repository interface {
	// Insert creates the lock unless one already exists for the hwid.
	// It reports false (and no error) on conflict; the secret generated
	// by the losing caller of a first-activation race is discarded and
	// never delivered.
	Insert(ctx context.Context, lock *DeviceLock) (inserted bool, err error)

	FindByHWID(ctx context.Context, hwid string) (*DeviceLock, error)

	Revoke(ctx context.Context, hwid, reason string, at time.Time) error
}
