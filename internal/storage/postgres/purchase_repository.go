package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ainside/licensing-api/internal/domain/purchase"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PurchaseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPurchaseRepository(db *pgxpool.Pool, logger *zap.Logger) *PurchaseRepository {
	return &PurchaseRepository{
		db:     db,
		logger: logger.Named("PurchaseRepository"),
	}
}

var _ purchase.Repository = (*PurchaseRepository)(nil)

func (r *PurchaseRepository) FindByOrderID(ctx context.Context, orderID string) (*purchase.Purchase, error) {
	query := `
        SELECT order_id, email, status, created_at
        FROM purchases
        WHERE order_id = $1
    `

	var p purchase.Purchase
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&p.OrderID,
		&p.Email,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, purchase.ErrNotFound
		}
		r.logger.Error("Failed to query purchase", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("database error on find purchase: %w", err)
	}

	return &p, nil
}
