package service

import (
	"context"
	"testing"
	"time"

	"github.com/ainside/licensing-api/internal/config"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	users := memstorage.NewUserRepository()
	require.NoError(t, users.SeedAdmin("support", "support@example.com", "hunter2hunter2"))
	cfg := &config.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}
	return NewAuthService(users, cfg, zap.NewNop())
}

func TestLogin_IssuesValidToken(t *testing.T) {
	service := newAuthFixture(t)

	token, err := service.Login(context.Background(), "support", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "support@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.Subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	service := newAuthFixture(t)

	_, err := service.Login(context.Background(), "support", "wrong")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	service := newAuthFixture(t)

	_, err := service.Login(context.Background(), "nobody", "hunter2hunter2")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	service := newAuthFixture(t)

	_, err := service.ValidateToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestValidateToken_RejectsTokenSignedWithOtherSecret(t *testing.T) {
	users := memstorage.NewUserRepository()
	require.NoError(t, users.SeedAdmin("support", "support@example.com", "hunter2hunter2"))

	issuer := NewAuthService(users, &config.JWTConfig{Secret: "secret-a", TokenTTL: time.Hour}, zap.NewNop())
	validator := NewAuthService(users, &config.JWTConfig{Secret: "secret-b", TokenTTL: time.Hour}, zap.NewNop())

	token, err := issuer.Login(context.Background(), "support", "hunter2hunter2")
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}
