package purchase

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("purchase not found")

type Repository interface {
	FindByOrderID(ctx context.Context, orderID string) (*Purchase, error)
}
