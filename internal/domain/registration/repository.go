package registration

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("registration not found")

type ListParams struct {
	Status *Status
	Email  *string
	Limit  int
	Offset int
}

type Repository interface {
	// Create inserts the registration unless one already exists for the
	// same order_id. It reports false (and no error) on conflict so a
	// racing caller can re-read and take the idempotent path.
	Create(ctx context.Context, reg *Registration) (created bool, err error)

	FindByOrderID(ctx context.Context, orderID string) (*Registration, error)

	// FindActiveByHWID returns the active registration currently bound
	// to the hardware identity, or ErrNotFound.
	FindActiveByHWID(ctx context.Context, hwid string) (*Registration, error)

	// Rebind points the order at a new hardware identity and forces the
	// status back to active. Support-reset only.
	Rebind(ctx context.Context, orderID, newHWID string) error

	List(ctx context.Context, params ListParams) ([]*Registration, int64, error)
}
