package service

import (
	"context"
	"testing"

	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type heartbeatFixture struct {
	registrations *memstorage.RegistrationRepository
	connections   *memstorage.ConnectionRepository
	service       *HeartbeatService
}

func newHeartbeatFixture() *heartbeatFixture {
	registrations := memstorage.NewRegistrationRepository()
	connections := memstorage.NewConnectionRepository()
	return &heartbeatFixture{
		registrations: registrations,
		connections:   connections,
		service:       NewHeartbeatService(registrations, connections, nil, zap.NewNop()),
	}
}

func (f *heartbeatFixture) registerActive(t *testing.T, orderID, hwid string) {
	t.Helper()
	created, err := f.registrations.Create(context.Background(), &registration.Registration{
		OrderID: orderID,
		Email:   "buyer@example.com",
		HWID:    hwid,
		Status:  registration.StatusActive,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestBeat_RejectsUnregisteredHWID(t *testing.T) {
	f := newHeartbeatFixture()

	_, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{HWID: testHWIDUUID})
	assert.ErrorIs(t, err, ierr.ErrUnregisteredHWID)
}

func TestBeat_RejectsMalformedHWID(t *testing.T) {
	f := newHeartbeatFixture()

	_, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{HWID: "garbage"})
	assert.ErrorIs(t, err, ierr.ErrValidation)
}

func TestBeat_DefaultsForFirstHeartbeat(t *testing.T) {
	f := newHeartbeatFixture()
	f.registerActive(t, "ORD-1001", testHWIDUUID)

	conn, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{HWID: testHWIDUUID})
	require.NoError(t, err)
	assert.Equal(t, connection.DefaultPlanName, conn.PlanName)
	assert.Equal(t, connection.DefaultStrategies, conn.StrategiesAvailable)
	assert.True(t, conn.Online)
	assert.False(t, conn.LastSeen.IsZero())
}

func TestBeat_UpdatesReportedState(t *testing.T) {
	f := newHeartbeatFixture()
	f.registerActive(t, "ORD-1001", testHWIDUUID)

	_, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{HWID: testHWIDUUID})
	require.NoError(t, err)

	conn, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{
		HWID:             testHWIDUUID,
		PlanName:         "Pro",
		StrategiesActive: []string{"Scalping Pro"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pro", conn.PlanName)
	assert.Equal(t, []string{"Scalping Pro"}, conn.StrategiesActive)
}

func TestBeat_RevokedRegistrationLosesPresence(t *testing.T) {
	f := newHeartbeatFixture()
	f.registerActive(t, "ORD-1001", testHWIDUUID)

	// Support moved the order to another device; the old hardware no
	// longer has an active registration.
	require.NoError(t, f.registrations.Rebind(context.Background(), "ORD-1001", testHWIDMac))

	_, err := f.service.Beat(context.Background(), &dto.HeartbeatRequest{HWID: testHWIDUUID})
	assert.ErrorIs(t, err, ierr.ErrUnregisteredHWID)
}
