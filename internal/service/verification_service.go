package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/ainside/licensing-api/internal/domain/hwid"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/metrics"
	"github.com/ainside/licensing-api/internal/signing"
	"github.com/ainside/licensing-api/internal/util"
	"go.uber.org/zap"
)

const (
	assertionVersion = 1

	ReasonOK               = "ok"
	ReasonUnregisteredHWID = "unregistered_hwid"
	ReasonInvalidSecret    = "invalid_device_secret"
	ReasonRevoked          = "revoked"
)

// Assertion is the short-lived license proof. ts/exp are Unix
// milliseconds; the fixed gap forces the desktop client to re-verify
// instead of caching a long-lived grant.
type Assertion struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason"`
	HWID      string `json:"hwid"`
	OrderID   string `json:"orderId"`
	IssuedAt  int64  `json:"ts"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce,omitempty"`
	Version   int    `json:"v"`
}

type SignedAssertion struct {
	Payload   []byte
	Signature string
	Algorithm string
}

type VerificationService struct {
	locks         devicelock.Repository
	registrations registration.Repository
	signer        *signing.Signer
	ttl           time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewVerificationService(
	locks devicelock.Repository,
	registrations registration.Repository,
	signer *signing.Signer,
	ttl time.Duration,
	logger *zap.Logger,
) *VerificationService {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &VerificationService{
		locks:         locks,
		registrations: registrations,
		signer:        signer,
		ttl:           ttl,
		now:           time.Now,
		logger:        logger.Named("VerificationService"),
	}
}

// Check validates a device secret and returns a signed assertion. A
// wrong hardware id and a wrong secret are deliberately
// indistinguishable to the caller.
func (s *VerificationService) Check(ctx context.Context, hwidRaw, deviceSecret, nonce string) (*SignedAssertion, error) {
	id, err := hwid.Parse(strings.TrimSpace(hwidRaw))
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %v", ierr.ErrValidation, err)
	}

	lock, err := s.locks.FindByHWID(ctx, id.String())
	if err != nil {
		if errors.Is(err, devicelock.ErrNotFound) {
			metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
			return nil, ierr.ErrInvalidDeviceSecret
		}
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to load device lock", zap.String("hwid", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to validate device", ierr.ErrInternalServer)
	}

	suppliedHash := util.HashDeviceSecret(strings.TrimSpace(deviceSecret))
	if subtle.ConstantTimeCompare([]byte(suppliedHash), []byte(lock.SecretHash)) != 1 {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
		s.logger.Info("Verification rejected: secret mismatch", zap.String("hwid", id.String()))
		return nil, ierr.ErrInvalidDeviceSecret
	}

	if lock.IsRevoked() {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
		s.logger.Info("Verification rejected: device revoked", zap.String("hwid", id.String()))
		return nil, ierr.ErrDeviceRevoked
	}

	// The registration gate is soft: the call succeeds but the signed
	// assertion carries allowed=false, so the client can show a clear
	// "license deactivated" message instead of a transport error.
	allowed := true
	reason := ReasonOK
	if _, err := s.registrations.FindActiveByHWID(ctx, id.String()); err != nil {
		if !errors.Is(err, registration.ErrNotFound) {
			metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			s.logger.Error("Failed to load registration", zap.String("hwid", id.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: failed to validate registration", ierr.ErrInternalServer)
		}
		allowed = false
		reason = ReasonUnregisteredHWID
	}

	now := s.now()
	assertion := Assertion{
		Allowed:   allowed,
		Reason:    reason,
		HWID:      id.String(),
		OrderID:   lock.OrderID,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(s.ttl).UnixMilli(),
		Nonce:     strings.TrimSpace(nonce),
		Version:   assertionVersion,
	}

	payload, err := json.Marshal(assertion)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to marshal assertion payload", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to build assertion", ierr.ErrInternalServer)
	}

	signature, err := s.signer.Sign(payload)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to sign assertion payload", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to sign assertion", ierr.ErrInternalServer)
	}

	if allowed {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeAllowed).Inc()
	} else {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
	}

	return &SignedAssertion{
		Payload:   payload,
		Signature: signature,
		Algorithm: signing.Algorithm,
	}, nil
}
