package handler

import (
	"errors"
	"net/http"

	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/handler/middleware"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *service.AuthService
	twoFA  *service.TwoFAService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, twoFA *service.TwoFAService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		twoFA:  twoFA,
		logger: logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind login request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ierr.ErrInvalidCredentials) {
			h.logger.Info("Invalid login attempt", zap.String("username", req.Username))
		}
		_ = c.Error(err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("username", req.Username))
	c.JSON(http.StatusOK, dto.LoginResponse{AccessToken: token})
}

// Verify2FA sits behind AuthMiddleware: the admin is already
// authenticated with the primary factor and now proves the second.
func (h *AuthHandler) Verify2FA(c *gin.Context) {
	claims := middleware.GetAdminClaims(c)
	if claims == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		h.logger.Warn("Access token carries a malformed subject", zap.Error(err))
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	var req dto.Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind 2fa verification request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	result, err := h.twoFA.VerifyCode(
		c.Request.Context(),
		userID,
		claims.Email,
		req.Code,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !result.Verified {
		c.JSON(http.StatusOK, dto.Verify2FAResponse{Verified: false, Message: "Invalid code"})
		return
	}

	c.JSON(http.StatusOK, dto.Verify2FAResponse{
		Verified:  true,
		Token:     result.Token,
		ExpiresAt: &result.ExpiresAt,
		Message:   "Code verified successfully",
	})
}
