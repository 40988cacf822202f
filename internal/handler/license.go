package handler

import (
	"errors"
	"net/http"

	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LicenseHandler struct {
	activation   *service.ActivationService
	verification *service.VerificationService
	logger       *zap.Logger
}

func NewLicenseHandler(
	activation *service.ActivationService,
	verification *service.VerificationService,
	logger *zap.Logger,
) *LicenseHandler {
	return &LicenseHandler{
		activation:   activation,
		verification: verification,
		logger:       logger.Named("LicenseHandler"),
	}
}

func (h *LicenseHandler) Activate(c *gin.Context) {
	var req dto.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind activation request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	result, err := h.activation.Activate(c.Request.Context(), &req)
	if err != nil {
		// DeviceLocked carries extra fields the desktop client uses to
		// direct the user to support; the remaining cases go through
		// the shared error mapping.
		if errors.Is(err, ierr.ErrDeviceLocked) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "This Order ID is already locked to a different PC. Contact support to transfer.",
				"locked":  true,
				"orderId": req.OrderID,
			})
			return
		}
		_ = c.Error(err)
		return
	}

	if result.AlreadyActivated {
		c.JSON(http.StatusOK, dto.ActivateResponse{
			Success:          true,
			AlreadyActivated: true,
			Message:          "Device already activated. If you reinstalled and lost the device secret, contact support.",
		})
		return
	}

	c.JSON(http.StatusOK, dto.ActivateResponse{
		Success:      true,
		DeviceSecret: result.DeviceSecret,
		OrderID:      result.OrderID,
		Email:        result.Email,
	})
}

func (h *LicenseHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind verification request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	signed, err := h.verification.Check(c.Request.Context(), req.HWID, req.DeviceSecret, req.Nonce)
	if err != nil {
		// Secret and revocation failures are plain denials, not signed
		// assertions; the client treats them as hard stops.
		switch {
		case errors.Is(err, ierr.ErrInvalidDeviceSecret):
			c.JSON(http.StatusForbidden, dto.CheckDeniedResponse{Allowed: false, Reason: service.ReasonInvalidSecret})
		case errors.Is(err, ierr.ErrDeviceRevoked):
			c.JSON(http.StatusForbidden, dto.CheckDeniedResponse{Allowed: false, Reason: service.ReasonRevoked})
		default:
			_ = c.Error(err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.CheckResponse{
		Payload:   signed.Payload,
		Signature: signed.Signature,
		Alg:       signed.Algorithm,
	})
}
