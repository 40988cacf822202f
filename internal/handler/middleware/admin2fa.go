package middleware

import (
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const twoFATokenHeader = "X-Admin-2FA-Token"

// Require2FAMiddleware sits behind AuthMiddleware and enforces the
// server-tracked second factor on privileged routes.
func Require2FAMiddleware(twoFAService *service.TwoFAService, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("Require2FAMiddleware")
	return func(c *gin.Context) {
		claims := GetAdminClaims(c)
		if claims == nil {
			_ = c.Error(ierr.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Warn("Access token carries a malformed subject", zap.Error(err))
			_ = c.Error(ierr.ErrUnauthorized)
			c.Abort()
			return
		}

		token := c.GetHeader(twoFATokenHeader)
		if err := twoFAService.ValidateSession(c.Request.Context(), userID, claims.Email, token); err != nil {
			log.Info("2FA gate rejected request", zap.String("email", claims.Email))
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Next()
	}
}
