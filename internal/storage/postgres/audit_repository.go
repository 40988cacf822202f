package postgres

import (
	"context"
	"fmt"

	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger.Named("AuditRepository"),
	}
}

var _ audit.Repository = (*AuditRepository)(nil)

func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	query := `
        INSERT INTO admin_access_logs (admin_email, action, resource, details, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := r.db.Exec(ctx, query,
		entry.AdminEmail,
		entry.Action,
		entry.Resource,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	)
	if err != nil {
		r.logger.Error("Failed to insert audit entry", zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("database error on insert audit entry: %w", err)
	}

	return nil
}
