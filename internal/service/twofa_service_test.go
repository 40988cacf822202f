package service

import (
	"context"
	"testing"
	"time"

	"github.com/ainside/licensing-api/internal/config"
	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

type twoFAFixture struct {
	sessions *memstorage.SessionRepository
	audits   *memstorage.AuditRepository
	service  *TwoFAService
	userID   uuid.UUID
}

func newTwoFAFixture() *twoFAFixture {
	sessions := memstorage.NewSessionRepository()
	audits := memstorage.NewAuditRepository()
	cfg := &config.AdminConfig{
		Emails:      []string{"support@example.com"},
		TOTPSecrets: map[string]string{"support@example.com": testTOTPSecret},
		SessionTTL:  time.Hour,
		TOTPIssuer:  "AInside",
	}
	return &twoFAFixture{
		sessions: sessions,
		audits:   audits,
		service:  NewTwoFAService(sessions, audits, nil, cfg, zap.NewNop()),
		userID:   uuid.New(),
	}
}

func currentCode(t *testing.T) string {
	t.Helper()
	code, err := totp.GenerateCode(testTOTPSecret, time.Now().UTC())
	require.NoError(t, err)
	return code
}

func TestVerifyCode_IssuesSessionOnValidCode(t *testing.T) {
	f := newTwoFAFixture()

	result, err := f.service.VerifyCode(context.Background(), f.userID, "support@example.com", currentCode(t), "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	session, err := f.sessions.FindByToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, f.userID, session.UserID)
	assert.Equal(t, "support@example.com", session.AdminEmail)

	entries := f.audits.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.Action2FASuccess, entries[0].Action)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
}

func TestVerifyCode_WrongCodeIsNotAnError(t *testing.T) {
	f := newTwoFAFixture()

	result, err := f.service.VerifyCode(context.Background(), f.userID, "support@example.com", "000000", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Empty(t, result.Token)

	entries := f.audits.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.Action2FAFailed, entries[0].Action)
}

func TestVerifyCode_RejectsNonAllowlistedAdmin(t *testing.T) {
	f := newTwoFAFixture()

	_, err := f.service.VerifyCode(context.Background(), f.userID, "stranger@example.com", currentCode(t), "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ierr.ErrForbidden)
}

func TestVerifyCode_FallsBackToSharedSecret(t *testing.T) {
	sessions := memstorage.NewSessionRepository()
	audits := memstorage.NewAuditRepository()
	cfg := &config.AdminConfig{
		Emails:           []string{"support@example.com"},
		TOTPSharedSecret: testTOTPSecret,
		SessionTTL:       time.Hour,
	}
	service := NewTwoFAService(sessions, audits, nil, cfg, zap.NewNop())

	result, err := service.VerifyCode(context.Background(), uuid.New(), "support@example.com", currentCode(t), "", "")
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestValidateSession_AllFailuresCollapse(t *testing.T) {
	f := newTwoFAFixture()

	result, err := f.service.VerifyCode(context.Background(), f.userID, "support@example.com", currentCode(t), "", "")
	require.NoError(t, err)
	require.True(t, result.Verified)

	// Happy path.
	require.NoError(t, f.service.ValidateSession(context.Background(), f.userID, "support@example.com", result.Token))

	// Missing token.
	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), f.userID, "support@example.com", ""), ierr.ErrTwoFARequired)

	// Unknown token.
	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), f.userID, "support@example.com", "bogus"), ierr.ErrTwoFAInvalid)

	// Token bound to a different user.
	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), uuid.New(), "support@example.com", result.Token), ierr.ErrTwoFAInvalid)

	// Token bound to a different admin email.
	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), f.userID, "other@example.com", result.Token), ierr.ErrTwoFAInvalid)
}

func TestValidateSession_ExpiredSession(t *testing.T) {
	f := newTwoFAFixture()

	token := "expired-token"
	require.NoError(t, f.sessions.Create(context.Background(), &adminsession.Session{
		Token:      token,
		UserID:     f.userID,
		AdminEmail: "support@example.com",
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	}))

	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), f.userID, "support@example.com", token), ierr.ErrTwoFAInvalid)
}

func TestValidateSession_RevokedSession(t *testing.T) {
	f := newTwoFAFixture()

	token := "revoked-token"
	require.NoError(t, f.sessions.Create(context.Background(), &adminsession.Session{
		Token:      token,
		UserID:     f.userID,
		AdminEmail: "support@example.com",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
		Revoked:    true,
	}))

	assert.ErrorIs(t, f.service.ValidateSession(context.Background(), f.userID, "support@example.com", token), ierr.ErrTwoFAInvalid)
}
