package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/ainside/licensing-api/internal/domain/hwid"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/metrics"
	"go.uber.org/zap"
)

const defaultResetReason = "support_reset"

// SupportService holds the privileged operations support staff run
// after completing the 2FA challenge.
type SupportService struct {
	registrations registration.Repository
	locks         devicelock.Repository
	audits        audit.Repository
	logger        *zap.Logger
}

func NewSupportService(
	registrations registration.Repository,
	locks devicelock.Repository,
	audits audit.Repository,
	logger *zap.Logger,
) *SupportService {
	return &SupportService{
		registrations: registrations,
		locks:         locks,
		audits:        audits,
		logger:        logger.Named("SupportService"),
	}
}

type ResetResult struct {
	OrderID string
	OldHWID string
	NewHWID string
}

// ResetDevice revokes the old hardware binding and re-binds the order
// to a new hardware identity. No secret is issued here: the new device
// must go through activation, which keeps secrets single-issuance
// end to end.
func (s *SupportService) ResetDevice(ctx context.Context, adminEmail, orderID, newHWIDRaw, reason string) (*ResetResult, error) {
	newID, err := hwid.Parse(strings.TrimSpace(newHWIDRaw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ierr.ErrValidation, err)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultResetReason
	}

	reg, err := s.registrations.FindByOrderID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			return nil, ierr.ErrOrderNotRegistered
		}
		s.logger.Error("Failed to load registration for reset", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to load registration", ierr.ErrInternalServer)
	}

	oldHWID := reg.HWID
	if oldHWID != "" {
		// Best-effort: a missing old lock (device never activated) is
		// not a failure.
		if err := s.locks.Revoke(ctx, oldHWID, reason, time.Now().UTC()); err != nil && !errors.Is(err, devicelock.ErrNotFound) {
			s.logger.Warn("Failed to revoke old device lock during reset",
				zap.String("order_id", reg.OrderID), zap.String("hwid", oldHWID), zap.Error(err))
		}
	}

	if err := s.registrations.Rebind(ctx, reg.OrderID, newID.String()); err != nil {
		s.logger.Error("Failed to rebind registration", zap.String("order_id", reg.OrderID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to update registration", ierr.ErrInternalServer)
	}

	metrics.DeviceResetsTotal.Inc()
	s.logger.Info("Device reset completed",
		zap.String("order_id", reg.OrderID),
		zap.String("old_hwid", oldHWID),
		zap.String("new_hwid", newID.String()),
		zap.String("admin", adminEmail),
	)

	s.recordAudit(ctx, adminEmail, audit.ActionDeviceReset, reg.OrderID, map[string]string{
		"orderId": reg.OrderID,
		"oldHwid": oldHWID,
		"newHwid": newID.String(),
		"reason":  reason,
	})

	return &ResetResult{OrderID: reg.OrderID, OldHWID: oldHWID, NewHWID: newID.String()}, nil
}

func (s *SupportService) ListRegistrations(ctx context.Context, adminEmail string, req *dto.ListRegistrationsRequest) ([]*registration.Registration, int64, error) {
	regs, total, err := s.registrations.List(ctx, registration.ListParams{
		Status: req.Status,
		Email:  req.Email,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		s.logger.Error("Failed to list registrations", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: failed to list registrations", ierr.ErrInternalServer)
	}

	s.recordAudit(ctx, adminEmail, audit.ActionRegistrationsList, "", map[string]string{})

	return regs, total, nil
}

// recordAudit never fails the caller; a lost audit row is logged and
// swallowed.
func (s *SupportService) recordAudit(ctx context.Context, adminEmail, action, resource string, details map[string]string) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = nil
	}
	entry := &audit.Entry{
		AdminEmail: adminEmail,
		Action:     action,
		Resource:   resource,
		Details:    payload,
	}
	if err := s.audits.Insert(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}
