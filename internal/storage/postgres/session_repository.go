package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SessionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSessionRepository(db *pgxpool.Pool, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger.Named("SessionRepository"),
	}
}

var _ adminsession.Repository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session *adminsession.Session) error {
	query := `
        INSERT INTO admin_2fa_sessions (token, user_id, admin_email, expires_at, revoked)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := r.db.Exec(ctx, query,
		session.Token,
		session.UserID,
		session.AdminEmail,
		session.ExpiresAt,
		session.Revoked,
	)
	if err != nil {
		r.logger.Error("Failed to insert 2fa session", zap.String("admin_email", session.AdminEmail), zap.Error(err))
		return fmt.Errorf("database error on create 2fa session: %w", err)
	}

	return nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*adminsession.Session, error) {
	query := `
        SELECT token, user_id, admin_email, expires_at, revoked, created_at
        FROM admin_2fa_sessions
        WHERE token = $1
    `

	var s adminsession.Session
	err := r.db.QueryRow(ctx, query, token).Scan(
		&s.Token,
		&s.UserID,
		&s.AdminEmail,
		&s.ExpiresAt,
		&s.Revoked,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, adminsession.ErrNotFound
		}
		r.logger.Error("Failed to query 2fa session", zap.Error(err))
		return nil, fmt.Errorf("database error on find 2fa session: %w", err)
	}

	return &s, nil
}

func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM admin_2fa_sessions WHERE expires_at < $1`

	cmdTag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete expired 2fa sessions", zap.Error(err))
		return 0, fmt.Errorf("database error on delete expired sessions: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
