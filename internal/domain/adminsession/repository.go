package adminsession

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("2fa session not found")

type Repository interface {
	Create(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
