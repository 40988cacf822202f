package handler

import (
	"net/http"

	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClientHandler struct {
	heartbeat *service.HeartbeatService
	logger    *zap.Logger
}

func NewClientHandler(heartbeat *service.HeartbeatService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		heartbeat: heartbeat,
		logger:    logger.Named("ClientHandler"),
	}
}

func (h *ClientHandler) Heartbeat(c *gin.Context) {
	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind heartbeat request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	conn, err := h.heartbeat.Beat(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.HeartbeatResponse{
		Success: true,
		Config: dto.ConnectionConfig{
			PlanName:            conn.PlanName,
			StrategiesActive:    conn.StrategiesActive,
			StrategiesAvailable: conn.StrategiesAvailable,
		},
	})
}
