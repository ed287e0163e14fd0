// Package middleware contains the gin middleware chain: correlation ids,
// observability, authentication, and rate limiting.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/papersynth/papersynth/pkg/constants"
)

// RequestID assigns every request a correlation id, honoring one supplied by
// the client. The id is exposed on the response and threaded through the
// request context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(string(constants.ContextKeyRequestID), id)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}
