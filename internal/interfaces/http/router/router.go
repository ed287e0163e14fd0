// Package router assembles the gin engine: middleware chain, routes, and the
// operational endpoints.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/internal/infrastructure/ratelimit"
	"github.com/papersynth/papersynth/internal/interfaces/http/handlers"
	"github.com/papersynth/papersynth/internal/interfaces/http/middleware"
	"github.com/papersynth/papersynth/pkg/logger"
)

// Handlers bundles the endpoint implementations the router mounts.
type Handlers struct {
	Health   *handlers.HealthHandler
	Status   *handlers.StatusHandler
	Download *handlers.DownloadHandler
	Process  *handlers.ProcessHandler
}

// New assembles the HTTP engine with the full middleware chain.
func New(cfg *config.Config, log logger.Logger, metrics *monitoring.Metrics, limiter ratelimit.Limiter, h Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Observability(log, metrics))

	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		corsCfg.MaxAge = 12 * time.Hour
		r.Use(cors.New(corsCfg))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "papersynth", "docs": "/health"})
	})
	r.GET("/health", h.Health.Health)
	r.GET("/status/:request_id", h.Status.Status)
	r.GET("/download", h.Download.Download)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/process-paper/",
		middleware.Auth(&cfg.Auth),
		middleware.RateLimit(limiter, log, metrics),
		h.Process.Process,
	)

	// Unsigned artifact serving is the development fallback; signed
	// references replace it once a key is configured.
	if !cfg.Signing.Active() {
		r.Static("/static", cfg.Workspace.Root)
	}

	if cfg.Monitoring.PprofEnabled {
		pprof.Register(r)
	}

	return r
}
