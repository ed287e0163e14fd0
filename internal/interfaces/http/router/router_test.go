package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersynth/papersynth/internal/application"
	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/collab"
	"github.com/papersynth/papersynth/internal/infrastructure/extract"
	"github.com/papersynth/papersynth/internal/infrastructure/gate"
	"github.com/papersynth/papersynth/internal/infrastructure/ratelimit"
	"github.com/papersynth/papersynth/internal/infrastructure/signing"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	"github.com/papersynth/papersynth/internal/interfaces/http/handlers"
	"github.com/papersynth/papersynth/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okSummarizer struct{}

func (okSummarizer) Summarize(_ context.Context, text string, _ collab.SummaryOptions) (collab.Summary, error) {
	return collab.Summary{Title: "T", Text: "summary"}, nil
}

type okSpeech struct{}

func (okSpeech) Synthesize(context.Context, string) ([]byte, error) {
	return []byte("mp3"), nil
}

type okRenderer struct{}

func (okRenderer) RenderSummaryPDF(context.Context, collab.Summary) ([]byte, error) {
	return []byte("pdf"), nil
}

func (okRenderer) RenderPresentation(context.Context, collab.Summary, []byte) ([]byte, error) {
	return []byte("pptx"), nil
}

type okVisual struct{}

func (okVisual) Generate(context.Context, collab.Summary) ([]byte, error) {
	return []byte("png"), nil
}

func minimalPDF(text string) []byte {
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n",
		"",
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects[3] = fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(content), content)

	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = sb.Len()
		sb.WriteString(obj)
	}
	xrefPos := sb.Len()
	sb.WriteString(fmt.Sprintf("xref\n0 %d\n", len(objects)+1))
	sb.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		sb.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	sb.WriteString(fmt.Sprintf(
		"trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefPos))
	return []byte(sb.String())
}

func newTestRouter(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Auth:      config.AuthConfig{Token: "secret"},
		RateLimit: config.RateLimitConfig{PerMinute: 100},
		Gate:      config.GateConfig{Limit: 2},
		Workspace: config.WorkspaceConfig{Root: t.TempDir(), TTLHours: 24},
		Upload:    config.UploadConfig{MaxBytes: 1 << 20, MaxPDFPages: 100, MaxTextChars: 800_000},
		Features:  config.FeatureConfig{Visual: true, Audio: true},
		Signing:   config.SigningConfig{Enabled: true, Key: "router-key", TTLMinutes: 15},
	}
	if mutate != nil {
		mutate(cfg)
	}

	log := logger.NewNoopLogger()
	m, err := workspace.NewManager(cfg.Workspace.Root)
	require.NoError(t, err)

	var signer *signing.Signer
	if cfg.Signing.Active() {
		signer, err = signing.NewSigner(cfg.Signing.Key)
		require.NoError(t, err)
	}
	urls := handlers.NewArtifactURLBuilder(signer, cfg.Signing.TTL())

	proc := application.NewProcessor(cfg, m,
		extract.NewExtractor(cfg.Upload.MaxPDFPages, cfg.Upload.MaxTextChars),
		okSummarizer{}, okSpeech{}, okRenderer{},
		func(context.Context) (collab.VisualGenerator, error) { return okVisual{}, nil },
		log, nil)

	pool := ratelimit.NewPool(cfg.RateLimit.PerMinute, cfg.RateLimit.IdleTTL())

	return New(cfg, log, nil, pool, Handlers{
		Health:   handlers.NewHealthHandler(cfg, "test", nil),
		Status:   handlers.NewStatusHandler(m, urls),
		Download: handlers.NewDownloadHandler(m, signer),
		Process:  handlers.NewProcessHandler(proc, gate.New(cfg.Gate.Limit), urls, nil, cfg.Upload.MaxBytes),
	})
}

func uploadRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="paper.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(minimalPDF("An interesting finding"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("summary_length", "short"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-paper/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "10.0.0.1:4000"
	return req
}

func TestProcessEndToEnd(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "completed", resp.Status)
	assert.Empty(t, resp.Warnings)
	assert.Len(t, resp.Artifacts, 5)

	// The minted download URL must round-trip through the download endpoint.
	url := resp.Artifacts["summary.pdf"]
	require.True(t, strings.HasPrefix(url, "/download?"), "got %q", url)
	dw := httptest.NewRecorder()
	r.ServeHTTP(dw, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, dw.Code)
	assert.Equal(t, "pdf", dw.Body.String())

	// And the status endpoint must see every artifact.
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, httptest.NewRequest(http.MethodGet, "/status/"+resp.RequestID, nil))
	require.Equal(t, http.StatusOK, sw.Code)
	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &status))
	assert.Len(t, status.Artifacts, 5)
	assert.Empty(t, status.Missing)
}

func TestProcessRequiresAuth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "wrong"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProcessRateLimited(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit.PerMinute = 1
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "secret"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "secret"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestProcessOversizedBodyRejectedAtTheWire(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Upload.MaxBytes = 1024
	})

	// The body exceeds the cap plus the multipart slack, so parsing must
	// abort with 413 before the pipeline sees anything.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="paper.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 256<<10))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-paper/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer secret")
	req.RemoteAddr = "10.0.0.1:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestProcessMissingFileField(t *testing.T) {
	r := newTestRouter(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("summary_length", "short"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-paper/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_INVALID")
}

func TestStaticServingWhenSigningDisabled(t *testing.T) {
	var root string
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Signing = config.SigningConfig{}
		root = cfg.Workspace.Root
	})

	m, err := workspace.NewManager(root)
	require.NoError(t, err)
	ws, err := m.Create("req-s")
	require.NoError(t, err)
	_, err = ws.WriteArtifact("summary.pdf", strings.NewReader("static pdf"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/req-s/summary.pdf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "static pdf", w.Body.String())
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
