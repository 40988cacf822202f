package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ConnectionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConnectionRepository(db *pgxpool.Pool, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		db:     db,
		logger: logger.Named("ConnectionRepository"),
	}
}

var _ connection.Repository = (*ConnectionRepository)(nil)

func (r *ConnectionRepository) Upsert(ctx context.Context, conn *connection.Connection) (*connection.Connection, error) {
	query := `
        INSERT INTO client_connections (hwid, plan_name, strategies_active, strategies_available, online, last_seen, updated_at)
        VALUES ($1, COALESCE(NULLIF($2, ''), $4), $3, $5, TRUE, now(), now())
        ON CONFLICT (hwid) DO UPDATE SET
            plan_name = COALESCE(NULLIF(EXCLUDED.plan_name, ''), client_connections.plan_name),
            strategies_active = CASE
                WHEN cardinality(EXCLUDED.strategies_active) > 0 THEN EXCLUDED.strategies_active
                ELSE client_connections.strategies_active
            END,
            online = TRUE,
            last_seen = now(),
            updated_at = now()
        RETURNING hwid, plan_name, strategies_active, strategies_available, online, last_seen, updated_at
    `

	active := conn.StrategiesActive
	if active == nil {
		active = []string{}
	}

	var out connection.Connection
	err := r.db.QueryRow(ctx, query,
		conn.HWID,
		conn.PlanName,
		active,
		connection.DefaultPlanName,
		connection.DefaultStrategies,
	).Scan(
		&out.HWID,
		&out.PlanName,
		&out.StrategiesActive,
		&out.StrategiesAvailable,
		&out.Online,
		&out.LastSeen,
		&out.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert client connection", zap.String("hwid", conn.HWID), zap.Error(err))
		return nil, fmt.Errorf("database error on upsert connection: %w", err)
	}

	return &out, nil
}

func (r *ConnectionRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
        UPDATE client_connections
        SET online = FALSE, updated_at = now()
        WHERE online = TRUE AND last_seen < $1
    `

	cmdTag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to mark stale connections offline", zap.Error(err))
		return 0, fmt.Errorf("database error on mark offline: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
