package handler

import (
	"net/http"

	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/handler/middleware"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	support *service.SupportService
	logger  *zap.Logger
}

func NewAdminHandler(support *service.SupportService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		support: support,
		logger:  logger.Named("AdminHandler"),
	}
}

func (h *AdminHandler) DeviceReset(c *gin.Context) {
	claims := middleware.GetAdminClaims(c)
	if claims == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	var req dto.DeviceResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind device reset request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	result, err := h.support.ResetDevice(c.Request.Context(), claims.Email, req.OrderID, req.NewHWID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Device reset via handler",
		zap.String("order_id", result.OrderID), zap.String("admin", claims.Email))

	c.JSON(http.StatusOK, dto.DeviceResetResponse{
		Success: true,
		OrderID: result.OrderID,
		OldHWID: result.OldHWID,
		NewHWID: result.NewHWID,
	})
}

func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	claims := middleware.GetAdminClaims(c)
	if claims == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	var req dto.ListRegistrationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Failed to bind registration list query", zap.Error(err))
		_ = c.Error(err)
		return
	}

	regs, total, err := h.support.ListRegistrations(c.Request.Context(), claims.Email, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]*dto.RegistrationResponse, len(regs))
	for i, reg := range regs {
		responses[i] = dto.NewRegistrationResponse(reg)
	}

	c.JSON(http.StatusOK, dto.PaginatedRegistrationsResponse{
		Registrations: responses,
		TotalCount:    total,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
}
