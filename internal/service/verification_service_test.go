package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/signing"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/ainside/licensing-api/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type verificationFixture struct {
	locks         *memstorage.DeviceLockRepository
	registrations *memstorage.RegistrationRepository
	key           *rsa.PrivateKey
	service       *VerificationService
	deviceSecret  string
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	locks := memstorage.NewDeviceLockRepository()
	registrations := memstorage.NewRegistrationRepository()

	secret, secretHash, err := util.GenerateDeviceSecret()
	require.NoError(t, err)

	inserted, err := locks.Insert(context.Background(), &devicelock.DeviceLock{
		HWID:       testHWIDUUID,
		OrderID:    "ORD-1001",
		Email:      "buyer@example.com",
		SecretHash: secretHash,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	created, err := registrations.Create(context.Background(), &registration.Registration{
		OrderID: "ORD-1001",
		Email:   "buyer@example.com",
		HWID:    testHWIDUUID,
		Status:  registration.StatusActive,
	})
	require.NoError(t, err)
	require.True(t, created)

	return &verificationFixture{
		locks:         locks,
		registrations: registrations,
		key:           key,
		service:       NewVerificationService(locks, registrations, signing.NewSigner(key), 60*time.Second, zap.NewNop()),
		deviceSecret:  secret,
	}
}

func TestCheck_SignedAssertionForValidSecret(t *testing.T) {
	f := newVerificationFixture(t)

	issuedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return issuedAt }

	signed, err := f.service.Check(context.Background(), testHWIDUUID, f.deviceSecret, "nonce-abc")
	require.NoError(t, err)
	assert.Equal(t, "RS256", signed.Algorithm)

	require.NoError(t, signing.Verify(&f.key.PublicKey, signed.Payload, signed.Signature))

	var assertion Assertion
	require.NoError(t, json.Unmarshal(signed.Payload, &assertion))
	assert.True(t, assertion.Allowed)
	assert.Equal(t, ReasonOK, assertion.Reason)
	assert.Equal(t, testHWIDUUID, assertion.HWID)
	assert.Equal(t, "ORD-1001", assertion.OrderID)
	assert.Equal(t, issuedAt.UnixMilli(), assertion.IssuedAt)
	assert.Equal(t, int64(60_000), assertion.ExpiresAt-assertion.IssuedAt)
	assert.Equal(t, "nonce-abc", assertion.Nonce)
	assert.Equal(t, 1, assertion.Version)
}

func TestCheck_TamperedPayloadFailsVerification(t *testing.T) {
	f := newVerificationFixture(t)

	signed, err := f.service.Check(context.Background(), testHWIDUUID, f.deviceSecret, "")
	require.NoError(t, err)

	tampered := append([]byte{}, signed.Payload...)
	tampered[0] ^= 0x01
	assert.Error(t, signing.Verify(&f.key.PublicKey, tampered, signed.Signature))
}

func TestCheck_WrongSecretDenied(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.service.Check(context.Background(), testHWIDUUID, "wrong-secret", "")
	assert.ErrorIs(t, err, ierr.ErrInvalidDeviceSecret)
}

func TestCheck_UnknownHWIDIndistinguishableFromWrongSecret(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.service.Check(context.Background(), testHWIDMac, f.deviceSecret, "")
	assert.ErrorIs(t, err, ierr.ErrInvalidDeviceSecret)
}

func TestCheck_RevokedDeviceDenied(t *testing.T) {
	f := newVerificationFixture(t)

	require.NoError(t, f.locks.Revoke(context.Background(), testHWIDUUID, "support_reset", time.Now().UTC()))

	_, err := f.service.Check(context.Background(), testHWIDUUID, f.deviceSecret, "")
	assert.ErrorIs(t, err, ierr.ErrDeviceRevoked)
}

func TestCheck_MissingRegistrationIsSoftDenial(t *testing.T) {
	f := newVerificationFixture(t)

	// Drop the registration by rebinding the order elsewhere; the lock
	// and secret stay valid but the hardware is no longer registered.
	require.NoError(t, f.registrations.Rebind(context.Background(), "ORD-1001", testHWIDMac))

	signed, err := f.service.Check(context.Background(), testHWIDUUID, f.deviceSecret, "")
	require.NoError(t, err)

	require.NoError(t, signing.Verify(&f.key.PublicKey, signed.Payload, signed.Signature))

	var assertion Assertion
	require.NoError(t, json.Unmarshal(signed.Payload, &assertion))
	assert.False(t, assertion.Allowed)
	assert.Equal(t, ReasonUnregisteredHWID, assertion.Reason)
}

func TestCheck_RejectsMalformedHWID(t *testing.T) {
	f := newVerificationFixture(t)

	_, err := f.service.Check(context.Background(), "garbage", f.deviceSecret, "")
	assert.ErrorIs(t, err, ierr.ErrValidation)
}
