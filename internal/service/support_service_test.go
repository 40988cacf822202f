package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/ainside/licensing-api/internal/domain/purchase"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/signing"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type supportFixture struct {
	purchases     *memstorage.PurchaseRepository
	registrations *memstorage.RegistrationRepository
	locks         *memstorage.DeviceLockRepository
	audits        *memstorage.AuditRepository
	activation    *ActivationService
	support       *SupportService
}

func newSupportFixture() *supportFixture {
	purchases := memstorage.NewPurchaseRepository()
	registrations := memstorage.NewRegistrationRepository()
	locks := memstorage.NewDeviceLockRepository()
	audits := memstorage.NewAuditRepository()
	return &supportFixture{
		purchases:     purchases,
		registrations: registrations,
		locks:         locks,
		audits:        audits,
		activation:    NewActivationService(purchases, registrations, locks, zap.NewNop()),
		support:       NewSupportService(registrations, locks, audits, zap.NewNop()),
	}
}

func TestResetDevice_RevokesOldLockAndRebinds(t *testing.T) {
	f := newSupportFixture()
	f.purchases.Seed(&purchase.Purchase{OrderID: "ORD-1001", Email: "buyer@example.com", Status: purchase.StatusCompleted})

	_, err := f.activation.Activate(context.Background(), &dto.ActivateRequest{
		OrderID: "ORD-1001",
		HWID:    testHWIDUUID,
	})
	require.NoError(t, err)

	result, err := f.support.ResetDevice(context.Background(), "support@example.com", "ORD-1001", testHWIDMac, "customer replaced pc")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", result.OrderID)
	assert.Equal(t, testHWIDUUID, result.OldHWID)
	assert.Equal(t, testHWIDMac, result.NewHWID)

	oldLock, err := f.locks.FindByHWID(context.Background(), testHWIDUUID)
	require.NoError(t, err)
	assert.True(t, oldLock.IsRevoked())

	reg, err := f.registrations.FindByOrderID(context.Background(), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, testHWIDMac, reg.HWID)
	assert.Equal(t, registration.StatusActive, reg.Status)

	entries := f.audits.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionDeviceReset, entries[0].Action)
	assert.Equal(t, "support@example.com", entries[0].AdminEmail)

	var details map[string]string
	require.NoError(t, json.Unmarshal(entries[0].Details, &details))
	assert.Equal(t, testHWIDUUID, details["oldHwid"])
	assert.Equal(t, testHWIDMac, details["newHwid"])
	assert.Equal(t, "customer replaced pc", details["reason"])
}

func TestResetDevice_OrderNeverRegistered(t *testing.T) {
	f := newSupportFixture()

	_, err := f.support.ResetDevice(context.Background(), "support@example.com", "ORD-MISSING", testHWIDMac, "")
	assert.ErrorIs(t, err, ierr.ErrOrderNotRegistered)
}

func TestResetDevice_RejectsMalformedNewHWID(t *testing.T) {
	f := newSupportFixture()

	_, err := f.support.ResetDevice(context.Background(), "support@example.com", "ORD-1001", "not-a-hwid", "")
	assert.ErrorIs(t, err, ierr.ErrValidation)
}

func TestResetDevice_SucceedsWhenOldDeviceNeverActivated(t *testing.T) {
	f := newSupportFixture()
	created, err := f.registrations.Create(context.Background(), &registration.Registration{
		OrderID: "ORD-1001",
		Email:   "buyer@example.com",
		HWID:    testHWIDUUID,
		Status:  registration.StatusActive,
	})
	require.NoError(t, err)
	require.True(t, created)

	result, err := f.support.ResetDevice(context.Background(), "support@example.com", "ORD-1001", testHWIDMac, "")
	require.NoError(t, err)
	assert.Equal(t, testHWIDMac, result.NewHWID)
}

// Full replacement flow: activate on the old PC, support reset to a new
// one, and confirm the old secret is dead while the new PC can activate
// and verify.
func TestDeviceReplacementFlow(t *testing.T) {
	f := newSupportFixture()
	f.purchases.Seed(&purchase.Purchase{OrderID: "ORD-1001", Email: "buyer@example.com", Status: purchase.StatusCompleted})

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verification := NewVerificationService(f.locks, f.registrations, signing.NewSigner(key), 60*time.Second, zap.NewNop())

	first, err := f.activation.Activate(context.Background(), &dto.ActivateRequest{
		OrderID: "ORD-1001",
		HWID:    testHWIDUUID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.DeviceSecret)

	_, err = f.support.ResetDevice(context.Background(), "support@example.com", "ORD-1001", testHWIDMac, "")
	require.NoError(t, err)

	// The old device is a hard stop.
	_, err = verification.Check(context.Background(), testHWIDUUID, first.DeviceSecret, "")
	assert.ErrorIs(t, err, ierr.ErrDeviceRevoked)

	// The new device goes through activation and gets a fresh secret.
	second, err := f.activation.Activate(context.Background(), &dto.ActivateRequest{
		OrderID: "ORD-1001",
		HWID:    testHWIDMac,
	})
	require.NoError(t, err)
	require.NotEmpty(t, second.DeviceSecret)
	assert.NotEqual(t, first.DeviceSecret, second.DeviceSecret)

	signed, err := verification.Check(context.Background(), testHWIDMac, second.DeviceSecret, "")
	require.NoError(t, err)

	var assertion Assertion
	require.NoError(t, json.Unmarshal(signed.Payload, &assertion))
	assert.True(t, assertion.Allowed)
	assert.Equal(t, ReasonOK, assertion.Reason)
}

func TestListRegistrations_FiltersAndAudits(t *testing.T) {
	f := newSupportFixture()
	for _, reg := range []*registration.Registration{
		{OrderID: "ORD-1", Email: "a@example.com", HWID: testHWIDUUID, Status: registration.StatusActive},
		{OrderID: "ORD-2", Email: "b@example.com", HWID: testHWIDMac, Status: registration.StatusRevoked},
	} {
		created, err := f.registrations.Create(context.Background(), reg)
		require.NoError(t, err)
		require.True(t, created)
	}

	status := registration.StatusActive
	regs, total, err := f.support.ListRegistrations(context.Background(), "support@example.com", &dto.ListRegistrationsRequest{
		Status: &status,
		Limit:  50,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, regs, 1)
	assert.Equal(t, "ORD-1", regs[0].OrderID)

	entries := f.audits.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionRegistrationsList, entries[0].Action)
}
