package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/infrastructure/signing"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	"github.com/papersynth/papersynth/pkg/constants"
)

func statusRouter(t *testing.T, urls *ArtifactURLBuilder) (*gin.Engine, *workspace.Manager) {
	t.Helper()
	m, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)
	r := gin.New()
	r.GET("/status/:request_id", NewStatusHandler(m, urls).Status)
	return r, m
}

func TestStatusUnknownRequest(t *testing.T) {
	r, _ := statusRouter(t, NewArtifactURLBuilder(nil, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestStatusSplitsPresentAndMissing(t *testing.T) {
	r, m := statusRouter(t, NewArtifactURLBuilder(nil, 0))

	ws, err := m.Create("req-1")
	require.NoError(t, err)
	_, err = ws.WriteArtifact("paper.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = ws.WriteArtifact("summary.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/req-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Contains(t, resp.Artifacts, "paper.pdf")
	assert.Contains(t, resp.Artifacts, "summary.pdf")
	assert.NotContains(t, resp.Artifacts, "voiceover.mp3")
	assert.Contains(t, resp.Missing, "voiceover.mp3")
	assert.Contains(t, resp.Missing, "presentation.pptx")
}

func TestStatusUnsignedURLs(t *testing.T) {
	r, m := statusRouter(t, NewArtifactURLBuilder(nil, 0))

	ws, err := m.Create("req-1")
	require.NoError(t, err)
	_, err = ws.WriteArtifact("summary.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/req-1", nil))

	var resp dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/static/req-1/summary.pdf", resp.Artifacts["summary.pdf"])
}

func TestStatusSignedURLsVerify(t *testing.T) {
	signer, err := signing.NewSigner("status-key")
	require.NoError(t, err)
	r, m := statusRouter(t, NewArtifactURLBuilder(signer, constants.StatusDownloadTTL))

	ws, err := m.Create("req-1")
	require.NoError(t, err)
	_, err = ws.WriteArtifact("summary.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/req-1", nil))

	var resp dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	raw := resp.Artifacts["summary.pdf"]
	require.True(t, strings.HasPrefix(raw, "/download?"), "got %q", raw)

	req := httptest.NewRequest(http.MethodGet, raw, nil)
	q := req.URL.Query()
	ref := signing.ParseReference(q.Get("rid"), q.Get("file"), q.Get("exp"), q.Get("sig"))
	assert.Equal(t, signing.Allow, signer.Verify(ref, time.Now()))

	// Status URLs carry the short polling TTL, not the process-response one.
	wantExp := time.Now().Add(constants.StatusDownloadTTL).Unix()
	assert.InDelta(t, wantExp, ref.ExpiresAt, 5)
}
