package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/collab"
)

// HealthHandler reports service liveness, feature flags, and collaborator
// reachability.
type HealthHandler struct {
	cfg     *config.Config
	version string
	pingers map[string]collab.Pinger
}

// NewHealthHandler builds the health endpoint. pingers maps collaborator
// names to their liveness probes.
func NewHealthHandler(cfg *config.Config, version string, pingers map[string]collab.Pinger) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: version, pingers: pingers}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:             "ok",
		Version:            h.version,
		RateLimitPerMinute: h.cfg.RateLimit.PerMinute,
		ConcurrencyLimit:   h.cfg.Gate.Limit,
		WorkspaceRoot:      h.cfg.Workspace.Root,
		Features: map[string]bool{
			"visual":           h.cfg.Features.Visual,
			"audio":            h.cfg.Features.Audio,
			"signed_downloads": h.cfg.Signing.Active(),
			"auth":             h.cfg.Auth.Enabled(),
			"rate_limit":       h.cfg.RateLimit.Enabled(),
		},
	}

	if len(h.pingers) > 0 {
		resp.Collaborators = make(map[string]string, len(h.pingers))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, p := range h.pingers {
			if err := p.Ping(ctx); err != nil {
				resp.Collaborators[name] = "unreachable"
				continue
			}
			resp.Collaborators[name] = "ok"
		}
	}

	c.JSON(http.StatusOK, resp)
}
