package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RegistrationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRegistrationRepository(db *pgxpool.Pool, logger *zap.Logger) *RegistrationRepository {
	return &RegistrationRepository{
		db:     db,
		logger: logger.Named("RegistrationRepository"),
	}
}

var _ registration.Repository = (*RegistrationRepository)(nil)

func (r *RegistrationRepository) Create(ctx context.Context, reg *registration.Registration) (bool, error) {
	// Conditional insert: the unique constraint on order_id decides the
	// winner of a concurrent first-activation race.
	query := `
        INSERT INTO hwid_registrations (order_id, email, name, hwid, status)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (order_id) DO NOTHING
    `

	cmdTag, err := r.db.Exec(ctx, query,
		reg.OrderID,
		reg.Email,
		reg.Name,
		reg.HWID,
		reg.Status,
	)
	if err != nil {
		r.logger.Error("Failed to insert registration", zap.String("order_id", reg.OrderID), zap.Error(err))
		return false, fmt.Errorf("database error on create registration: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Debug("Registration insert lost to an existing row", zap.String("order_id", reg.OrderID))
		return false, nil
	}

	r.logger.Info("Registration created", zap.String("order_id", reg.OrderID), zap.String("hwid", reg.HWID))
	return true, nil
}

func (r *RegistrationRepository) FindByOrderID(ctx context.Context, orderID string) (*registration.Registration, error) {
	query := `
        SELECT id, order_id, email, name, hwid, status, created_at, updated_at
        FROM hwid_registrations
        WHERE order_id = $1
    `
	return r.scanRegistration(r.db.QueryRow(ctx, query, orderID))
}

func (r *RegistrationRepository) FindActiveByHWID(ctx context.Context, hwid string) (*registration.Registration, error) {
	query := `
        SELECT id, order_id, email, name, hwid, status, created_at, updated_at
        FROM hwid_registrations
        WHERE hwid = $1 AND status = 'active'
        LIMIT 1
    `
	return r.scanRegistration(r.db.QueryRow(ctx, query, hwid))
}

func (r *RegistrationRepository) Rebind(ctx context.Context, orderID, newHWID string) error {
	query := `
        UPDATE hwid_registrations
        SET hwid = $1, status = 'active', updated_at = now()
        WHERE order_id = $2
    `

	cmdTag, err := r.db.Exec(ctx, query, newHWID, orderID)
	if err != nil {
		r.logger.Error("Failed to rebind registration", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("database error on rebind registration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return registration.ErrNotFound
	}

	r.logger.Info("Registration rebound to new hwid", zap.String("order_id", orderID), zap.String("hwid", newHWID))
	return nil
}

func (r *RegistrationRepository) List(ctx context.Context, params registration.ListParams) ([]*registration.Registration, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if params.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *params.Status)
		argPos++
	}
	if params.Email != nil {
		where += fmt.Sprintf(" AND email = $%d", argPos)
		args = append(args, *params.Email)
		argPos++
	}

	var total int64
	countQuery := "SELECT count(*) FROM hwid_registrations" + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count registrations", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on count registrations: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, order_id, email, name, hwid, status, created_at, updated_at
        FROM hwid_registrations
    ` + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query registrations", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on list registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*registration.Registration, 0)
	for rows.Next() {
		var reg registration.Registration
		err := rows.Scan(
			&reg.ID,
			&reg.OrderID,
			&reg.Email,
			&reg.Name,
			&reg.HWID,
			&reg.Status,
			&reg.CreatedAt,
			&reg.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan registration row during list", zap.Error(err))
			return nil, 0, fmt.Errorf("database scan error during list: %w", err)
		}
		regs = append(regs, &reg)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating registration rows", zap.Error(err))
		return nil, 0, fmt.Errorf("database iteration error on list registrations: %w", err)
	}

	return regs, total, nil
}

func (r *RegistrationRepository) scanRegistration(row pgx.Row) (*registration.Registration, error) {
	var reg registration.Registration
	err := row.Scan(
		&reg.ID,
		&reg.OrderID,
		&reg.Email,
		&reg.Name,
		&reg.HWID,
		&reg.Status,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registration.ErrNotFound
		}
		r.logger.Error("Failed to scan registration row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &reg, nil
}
