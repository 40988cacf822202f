package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DeviceLockRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDeviceLockRepository(db *pgxpool.Pool, logger *zap.Logger) *DeviceLockRepository {
	return &DeviceLockRepository{
		db:     db,
		logger: logger.Named("DeviceLockRepository"),
	}
}

var _ devicelock.Repository = (*DeviceLockRepository)(nil)

func (r *DeviceLockRepository) Insert(ctx context.Context, lock *devicelock.DeviceLock) (bool, error) {
	// The unique constraint on hwid guarantees at most one secret per
	// device; the loser of a concurrent insert observes the conflict
	// and must take the already-activated path.
	query := `
        INSERT INTO device_locks (hwid, order_id, email, secret_hash)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (hwid) DO NOTHING
    `

	cmdTag, err := r.db.Exec(ctx, query,
		lock.HWID,
		lock.OrderID,
		lock.Email,
		lock.SecretHash,
	)
	if err != nil {
		r.logger.Error("Failed to insert device lock", zap.String("hwid", lock.HWID), zap.Error(err))
		return false, fmt.Errorf("database error on insert device lock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Debug("Device lock insert lost to an existing row", zap.String("hwid", lock.HWID))
		return false, nil
	}

	r.logger.Info("Device lock created", zap.String("hwid", lock.HWID), zap.String("order_id", lock.OrderID))
	return true, nil
}

func (r *DeviceLockRepository) FindByHWID(ctx context.Context, hwid string) (*devicelock.DeviceLock, error) {
	query := `
        SELECT hwid, order_id, email, secret_hash, revoked_at, revoked_reason, created_at
        FROM device_locks
        WHERE hwid = $1
    `

	var lock devicelock.DeviceLock
	err := r.db.QueryRow(ctx, query, hwid).Scan(
		&lock.HWID,
		&lock.OrderID,
		&lock.Email,
		&lock.SecretHash,
		&lock.RevokedAt,
		&lock.RevokedReason,
		&lock.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, devicelock.ErrNotFound
		}
		r.logger.Error("Failed to query device lock", zap.String("hwid", hwid), zap.Error(err))
		return nil, fmt.Errorf("database error on find device lock: %w", err)
	}

	return &lock, nil
}

func (r *DeviceLockRepository) Revoke(ctx context.Context, hwid, reason string, at time.Time) error {
	// revoked_at is written once; a revoked lock can never be
	// un-revoked.
	query := `
        UPDATE device_locks
        SET revoked_at = $1, revoked_reason = $2
        WHERE hwid = $3 AND revoked_at IS NULL
    `

	cmdTag, err := r.db.Exec(ctx, query, at, reason, hwid)
	if err != nil {
		r.logger.Error("Failed to revoke device lock", zap.String("hwid", hwid), zap.Error(err))
		return fmt.Errorf("database error on revoke device lock: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return devicelock.ErrNotFound
	}

	r.logger.Info("Device lock revoked", zap.String("hwid", hwid), zap.String("reason", reason))
	return nil
}
