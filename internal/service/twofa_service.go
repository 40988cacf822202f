package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ainside/licensing-api/internal/config"
	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/util"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Matches the authenticator enrollment: SHA1, 6 digits, 30s period,
// one period of clock skew tolerated.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

type TwoFAService struct {
	sessions adminsession.Repository
	audits   audit.Repository
	redis    *redis.Client
	cfg      *config.AdminConfig
	logger   *zap.Logger
}

func NewTwoFAService(
	sessions adminsession.Repository,
	audits audit.Repository,
	redisClient *redis.Client,
	cfg *config.AdminConfig,
	logger *zap.Logger,
) *TwoFAService {
	return &TwoFAService{
		sessions: sessions,
		audits:   audits,
		redis:    redisClient,
		cfg:      cfg,
		logger:   logger.Named("TwoFAService"),
	}
}

type VerifyResult struct {
	Verified  bool
	Token     string
	ExpiresAt time.Time
}

// VerifyCode checks the admin's TOTP code and, on success, issues a
// server-tracked 2FA session token. A wrong code is not an error: the
// call succeeds with Verified=false, and both outcomes are audited.
func (s *TwoFAService) VerifyCode(ctx context.Context, userID uuid.UUID, email, code, ip, userAgent string) (*VerifyResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: missing admin email", ierr.ErrValidation)
	}
	if !s.isAllowlisted(email) {
		s.logger.Info("2FA rejected: admin not allowlisted", zap.String("email", email))
		return nil, ierr.ErrForbidden
	}

	secret := s.secretFor(email)
	if secret == "" {
		s.logger.Error("2FA secret not configured for admin", zap.String("email", email))
		return nil, fmt.Errorf("%w: 2fa secret not configured", ierr.ErrInternalServer)
	}

	verified := s.validateCode(ctx, email, code, secret)

	s.recordAudit(ctx, email, verified, ip, userAgent)

	if !verified {
		return &VerifyResult{Verified: false}, nil
	}

	token, err := util.GenerateSessionToken()
	if err != nil {
		s.logger.Error("Failed to generate 2fa session token", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create 2fa session", ierr.ErrInternalServer)
	}

	expiresAt := time.Now().UTC().Add(s.cfg.SessionTTL)
	err = s.sessions.Create(ctx, &adminsession.Session{
		Token:      token,
		UserID:     userID,
		AdminEmail: email,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		s.logger.Error("Failed to persist 2fa session", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create 2fa session", ierr.ErrInternalServer)
	}

	s.logger.Info("2FA session issued", zap.String("email", email))
	return &VerifyResult{Verified: true, Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateSession enforces the 2FA gate on privileged operations. All
// failure modes collapse into the same error so callers cannot probe
// which check failed.
func (s *TwoFAService) ValidateSession(ctx context.Context, userID uuid.UUID, email, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ierr.ErrTwoFARequired
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, adminsession.ErrNotFound) {
			return ierr.ErrTwoFAInvalid
		}
		s.logger.Error("Failed to load 2fa session", zap.Error(err))
		return fmt.Errorf("%w: failed to validate 2fa session", ierr.ErrInternalServer)
	}

	if session.UserID != userID {
		return ierr.ErrTwoFAInvalid
	}
	if !strings.EqualFold(session.AdminEmail, email) {
		return ierr.ErrTwoFAInvalid
	}
	// Expiry is checked against the stored row; nothing the client
	// declares is trusted.
	if !session.IsUsable(time.Now().UTC()) {
		return ierr.ErrTwoFAInvalid
	}

	return nil
}

func (s *TwoFAService) validateCode(ctx context.Context, email, code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	// Burn each accepted code for its validity window so a captured
	// code cannot be replayed.
	if s.redis != nil {
		key := "2fa:used:" + email + ":" + code
		ok, err := s.redis.SetNX(ctx, key, 1, 90*time.Second).Result()
		if err != nil {
			s.logger.Warn("2FA replay guard unavailable", zap.Error(err))
		} else if !ok {
			s.logger.Info("2FA rejected: code replay", zap.String("email", email))
			return false
		}
	}

	valid, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totpOpts)
	if err != nil {
		s.logger.Warn("TOTP validation errored", zap.Error(err))
		return false
	}
	return valid
}

func (s *TwoFAService) isAllowlisted(email string) bool {
	for _, allowed := range s.cfg.Emails {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}

func (s *TwoFAService) secretFor(email string) string {
	if secret, ok := s.cfg.TOTPSecrets[email]; ok && strings.TrimSpace(secret) != "" {
		return strings.TrimSpace(secret)
	}
	return strings.TrimSpace(s.cfg.TOTPSharedSecret)
}

func (s *TwoFAService) recordAudit(ctx context.Context, email string, verified bool, ip, userAgent string) {
	action := audit.Action2FAFailed
	if verified {
		action = audit.Action2FASuccess
	}
	details, _ := json.Marshal(map[string]string{"ip": ip})
	entry := &audit.Entry{
		AdminEmail: email,
		Action:     action,
		Details:    details,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.Insert(ctx, entry); err != nil {
		s.logger.Warn("Failed to write 2fa audit entry", zap.Error(err))
	}
}
