package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/config"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// Auth enforces the static bearer token on protected routes. An empty
// configured token leaves the route open.
func Auth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			dto.SendError(c, apperrors.ErrUnauthorized("missing Authorization header"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			dto.SendError(c, apperrors.ErrUnauthorized("Authorization header must be a bearer token"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
			dto.SendError(c, apperrors.ErrForbidden("invalid token"))
			return
		}
		c.Next()
	}
}
