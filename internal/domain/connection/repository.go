package connection

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert refreshes the presence row for the hwid, creating it with
	// defaults on first contact. Empty plan/strategy fields in the
	// update keep the stored values.
	Upsert(ctx context.Context, conn *Connection) (*Connection, error)

	// MarkOfflineBefore flips rows not seen since the cutoff to
	// offline, returning the number affected.
	MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
