package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/ainside/licensing-api/internal/domain/hwid"
	"github.com/ainside/licensing-api/internal/domain/purchase"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/metrics"
	"github.com/ainside/licensing-api/internal/util"
	"go.uber.org/zap"
)

type ActivationService struct {
	purchases     purchase.Repository
	registrations registration.Repository
	locks         devicelock.Repository
	logger        *zap.Logger
}

func NewActivationService(
	purchases purchase.Repository,
	registrations registration.Repository,
	locks devicelock.Repository,
	logger *zap.Logger,
) *ActivationService {
	return &ActivationService{
		purchases:     purchases,
		registrations: registrations,
		locks:         locks,
		logger:        logger.Named("ActivationService"),
	}
}

type ActivationResult struct {
	OrderID          string
	Email            string
	DeviceSecret     string
	AlreadyActivated bool
}

// Activate binds a completed purchase to a hardware identity and issues
// the device secret exactly once. Retries after a lost response land on
// the already-activated path; the secret is never re-delivered.
func (s *ActivationService) Activate(ctx context.Context, req *dto.ActivateRequest) (*ActivationResult, error) {
	id, err := hwid.Parse(strings.TrimSpace(req.HWID))
	if err != nil {
		metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %v", ierr.ErrValidation, err)
	}

	orderID := strings.TrimSpace(req.OrderID)
	emailInput := strings.ToLower(strings.TrimSpace(req.Email))

	result, err := s.activate(ctx, orderID, emailInput, strings.TrimSpace(req.Name), id)
	if err != nil {
		switch {
		case errors.Is(err, ierr.ErrInternalServer):
			metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		default:
			metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		}
		return nil, err
	}

	if result.AlreadyActivated {
		metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeAlreadyActivated).Inc()
	} else {
		metrics.ActivationsTotal.WithLabelValues(metrics.OutcomeIssued).Inc()
	}
	return result, nil
}

func (s *ActivationService) activate(ctx context.Context, orderID, emailInput, name string, id hwid.HardwareID) (*ActivationResult, error) {
	p, err := s.purchases.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			s.logger.Info("Activation rejected: order not found", zap.String("order_id", orderID))
			return nil, ierr.ErrOrderNotFound
		}
		s.logger.Error("Failed to validate order", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to validate order", ierr.ErrInternalServer)
	}

	email := strings.ToLower(p.Email)
	// An email supplied by the caller must match the ledger; the
	// response is indistinguishable from a missing order.
	if emailInput != "" && emailInput != email {
		s.logger.Info("Activation rejected: email mismatch", zap.String("order_id", orderID))
		return nil, ierr.ErrOrderNotFound
	}

	if !p.IsCompleted() {
		s.logger.Info("Activation rejected: payment not completed",
			zap.String("order_id", orderID), zap.String("status", string(p.Status)))
		return nil, ierr.ErrPaymentIncomplete
	}

	if name == "" {
		name = email
	}

	if err := s.ensureRegistration(ctx, orderID, email, name, id); err != nil {
		return nil, err
	}

	return s.ensureDeviceLock(ctx, orderID, email, id)
}

// ensureRegistration enforces the one-HWID-per-order invariant. The
// conditional insert makes concurrent first activations safe: the loser
// re-reads and re-applies the same checks against the winner's row.
func (s *ActivationService) ensureRegistration(ctx context.Context, orderID, email, name string, id hwid.HardwareID) error {
	existing, err := s.registrations.FindByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, registration.ErrNotFound) {
		s.logger.Error("Failed to load existing registration", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("%w: failed to validate existing registration", ierr.ErrInternalServer)
	}

	if existing == nil {
		// Guard against license sharing: this hardware may already be
		// claimed by a different order.
		if other, err := s.registrations.FindActiveByHWID(ctx, id.String()); err == nil && other.OrderID != orderID {
			s.logger.Info("Activation rejected: hwid bound to another order",
				zap.String("order_id", orderID), zap.String("hwid", id.String()))
			return fmt.Errorf("%w: this device is already registered to another order", ierr.ErrConflict)
		} else if err != nil && !errors.Is(err, registration.ErrNotFound) {
			s.logger.Error("Failed to check hwid usage", zap.String("hwid", id.String()), zap.Error(err))
			return fmt.Errorf("%w: failed to validate device", ierr.ErrInternalServer)
		}

		created, err := s.registrations.Create(ctx, &registration.Registration{
			OrderID: orderID,
			Email:   email,
			Name:    name,
			HWID:    id.String(),
			Status:  registration.StatusActive,
		})
		if err != nil {
			s.logger.Error("Failed to create registration", zap.String("order_id", orderID), zap.Error(err))
			return fmt.Errorf("%w: failed to register device", ierr.ErrInternalServer)
		}
		if created {
			return nil
		}

		// Lost a concurrent race; fall through to validate against the
		// row that won.
		existing, err = s.registrations.FindByOrderID(ctx, orderID)
		if err != nil {
			s.logger.Error("Failed to re-read registration after conflict", zap.String("order_id", orderID), zap.Error(err))
			return fmt.Errorf("%w: failed to validate existing registration", ierr.ErrInternalServer)
		}
	}

	if !strings.EqualFold(existing.Email, email) {
		s.logger.Info("Activation rejected: registration email mismatch", zap.String("order_id", orderID))
		return ierr.ErrEmailMismatch
	}
	if existing.HWID != id.String() {
		s.logger.Info("Activation rejected: order locked to another device",
			zap.String("order_id", orderID), zap.String("hwid", id.String()))
		return ierr.ErrDeviceLocked
	}
	return nil
}

func (s *ActivationService) ensureDeviceLock(ctx context.Context, orderID, email string, id hwid.HardwareID) (*ActivationResult, error) {
	existing, err := s.locks.FindByHWID(ctx, id.String())
	if err != nil && !errors.Is(err, devicelock.ErrNotFound) {
		s.logger.Error("Failed to load device lock", zap.String("hwid", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to validate device lock", ierr.ErrInternalServer)
	}

	if existing != nil {
		if existing.IsRevoked() {
			s.logger.Info("Activation rejected: device revoked", zap.String("hwid", id.String()))
			return nil, ierr.ErrDeviceRevoked
		}
		// Secret already delivered once; never re-issued.
		return &ActivationResult{OrderID: orderID, Email: email, AlreadyActivated: true}, nil
	}

	secret, secretHash, err := util.GenerateDeviceSecret()
	if err != nil {
		s.logger.Error("Failed to generate device secret", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to activate device", ierr.ErrInternalServer)
	}

	inserted, err := s.locks.Insert(ctx, &devicelock.DeviceLock{
		HWID:       id.String(),
		OrderID:    orderID,
		Email:      email,
		SecretHash: secretHash,
	})
	if err != nil {
		s.logger.Error("Failed to insert device lock", zap.String("hwid", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to activate device", ierr.ErrInternalServer)
	}
	if !inserted {
		// A concurrent activation won; this caller's secret is
		// discarded and the winner's was delivered exactly once.
		existing, err := s.locks.FindByHWID(ctx, id.String())
		if err != nil {
			s.logger.Error("Failed to re-read device lock after conflict", zap.String("hwid", id.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: failed to validate device lock", ierr.ErrInternalServer)
		}
		if existing.IsRevoked() {
			return nil, ierr.ErrDeviceRevoked
		}
		return &ActivationResult{OrderID: orderID, Email: email, AlreadyActivated: true}, nil
	}

	s.logger.Info("Device activated, secret issued",
		zap.String("order_id", orderID), zap.String("hwid", id.String()))
	return &ActivationResult{OrderID: orderID, Email: email, DeviceSecret: secret}, nil
}
