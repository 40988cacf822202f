package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMaintenanceSweep_ExpiresSessionsAndMarksStaleConnectionsOffline(t *testing.T) {
	sessions := memstorage.NewSessionRepository()
	connections := memstorage.NewConnectionRepository()

	require.NoError(t, sessions.Create(context.Background(), &adminsession.Session{
		Token:      "stale",
		UserID:     uuid.New(),
		AdminEmail: "support@example.com",
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	}))
	require.NoError(t, sessions.Create(context.Background(), &adminsession.Session{
		Token:      "fresh",
		UserID:     uuid.New(),
		AdminEmail: "support@example.com",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}))

	_, err := connections.Upsert(context.Background(), &connection.Connection{HWID: "123456789012"})
	require.NoError(t, err)
	_, err = connections.MarkOfflineBefore(context.Background(), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)

	handler := NewMaintenanceSweepHandler(sessions, connections, zap.NewNop())

	task, err := NewMaintenanceSweepTask()
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	_, err = sessions.FindByToken(context.Background(), "stale")
	assert.ErrorIs(t, err, adminsession.ErrNotFound)
	_, err = sessions.FindByToken(context.Background(), "fresh")
	assert.NoError(t, err)
}

func TestMaintenanceSweep_RejectsUnexpectedTaskType(t *testing.T) {
	handler := NewMaintenanceSweepHandler(memstorage.NewSessionRepository(), memstorage.NewConnectionRepository(), zap.NewNop())

	err := handler.ProcessTask(context.Background(), asynq.NewTask("some:other:task", nil))
	assert.Error(t, err)
}
