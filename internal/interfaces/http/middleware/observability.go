package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/pkg/logger"
)

// Observability records request metrics, a trace span, and a completion log
// line per request. Metrics use the route template so path cardinality stays
// bounded; the raw URL (with its signed query) is never logged.
func Observability(log logger.Logger, metrics *monitoring.Metrics) gin.HandlerFunc {
	tracer := monitoring.Tracer("papersynth/http")
	return func(c *gin.Context) {
		start := time.Now()

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		span.End()

		if metrics != nil {
			metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}

		fields := logger.Fields{
			"method":      c.Request.Method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client":      c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error(c.Request.Context(), "request failed", nil, fields)
		case status >= 400:
			log.Warn(c.Request.Context(), "request rejected", fields)
		default:
			log.Info(c.Request.Context(), "request completed", fields)
		}
	}
}
