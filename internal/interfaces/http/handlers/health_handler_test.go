package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/collab"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthReportsFeaturesAndCollaborators(t *testing.T) {
	cfg := &config.Config{
		Features:  config.FeatureConfig{Visual: true, Audio: false},
		Signing:   config.SigningConfig{Enabled: true, Key: "k"},
		Auth:      config.AuthConfig{Token: "secret"},
		RateLimit: config.RateLimitConfig{PerMinute: 10},
		Gate:      config.GateConfig{Limit: 2},
		Workspace: config.WorkspaceConfig{Root: "temp_files"},
	}
	h := NewHealthHandler(cfg, "1.2.3", map[string]collab.Pinger{
		"summarizer": fakePinger{},
		"renderer":   fakePinger{err: errors.New("down")},
	})

	r := gin.New()
	r.GET("/health", h.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, 10, resp.RateLimitPerMinute)
	assert.Equal(t, 2, resp.ConcurrencyLimit)
	assert.Equal(t, "temp_files", resp.WorkspaceRoot)
	assert.True(t, resp.Features["visual"])
	assert.False(t, resp.Features["audio"])
	assert.True(t, resp.Features["signed_downloads"])
	assert.True(t, resp.Features["auth"])
	assert.True(t, resp.Features["rate_limit"])
	assert.Equal(t, "ok", resp.Collaborators["summarizer"])
	assert.Equal(t, "unreachable", resp.Collaborators["renderer"])
}

func TestHealthWithoutPingers(t *testing.T) {
	h := NewHealthHandler(&config.Config{}, "dev", nil)

	r := gin.New()
	r.GET("/health", h.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Collaborators)
}
