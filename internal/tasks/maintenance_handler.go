package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Connections not seen for this long are flipped to offline.
const staleConnectionAge = 5 * time.Minute

type MaintenanceSweepHandler struct {
	sessions    adminsession.Repository
	connections connection.Repository
	logger      *zap.Logger
}

func NewMaintenanceSweepHandler(
	sessions adminsession.Repository,
	connections connection.Repository,
	logger *zap.Logger,
) *MaintenanceSweepHandler {
	return &MaintenanceSweepHandler{
		sessions:    sessions,
		connections: connections,
		logger:      logger.Named("MaintenanceSweepHandler"),
	}
}

func (h *MaintenanceSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeMaintenanceSweep {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p MaintenanceSweepPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for maintenance sweep task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	h.logger.Info("Processing maintenance sweep task...")

	now := time.Now().UTC()

	expiredSessions, err := h.sessions.DeleteExpiredBefore(ctx, now)
	if err != nil {
		h.logger.Error("Failed to delete expired admin 2fa sessions", zap.Error(err))
		return fmt.Errorf("repository error deleting expired sessions: %w", err)
	}

	staleConnections, err := h.connections.MarkOfflineBefore(ctx, now.Add(-staleConnectionAge))
	if err != nil {
		h.logger.Error("Failed to mark stale connections offline", zap.Error(err))
		return fmt.Errorf("repository error marking stale connections: %w", err)
	}

	h.logger.Info("Maintenance sweep task finished",
		zap.Int64("expired_sessions_deleted", expiredSessions),
		zap.Int64("connections_marked_offline", staleConnections),
	)
	return nil
}
