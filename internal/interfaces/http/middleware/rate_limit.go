package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/internal/infrastructure/ratelimit"
	"github.com/papersynth/papersynth/pkg/constants"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
	"github.com/papersynth/papersynth/pkg/logger"
)

// RateLimit admits or rejects requests against the per-client limiter.
// A limiter error fails open: availability over strictness for a local
// resource guard. metrics may be nil.
func RateLimit(limiter ratelimit.Limiter, log logger.Logger, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.GetHeader("Authorization"), c.Request.RemoteAddr)
		c.Set(string(constants.ContextKeyClientKey), key)

		allowed, err := limiter.Admit(c.Request.Context(), key, time.Now())
		if err != nil {
			log.Warn(c.Request.Context(), "rate limiter unavailable, admitting", logger.Fields{
				"error": err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			if metrics != nil {
				metrics.RateLimitRejections.WithLabelValues(keyKind(key)).Inc()
			}
			c.Header("Retry-After", "60")
			dto.SendError(c, apperrors.ErrRateLimited())
			return
		}
		c.Next()
	}
}

func keyKind(key string) string {
	if kind, _, ok := strings.Cut(key, ":"); ok {
		return kind
	}
	return "unknown"
}
