package collab

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// httpClient is the shared plumbing for all collaborator clients: JSON in,
// JSON out, non-2xx mapped to UPSTREAM_FAILURE.
type httpClient struct {
	name    string
	baseURL string
	client  *http.Client
}

func newHTTPClient(name, baseURL string, timeout time.Duration) httpClient {
	return httpClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Ping probes the collaborator's health endpoint.
func (c httpClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", c.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s health returned %d", c.name, resp.StatusCode)
	}
	return nil
}

func (c httpClient) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.ErrUpstreamFailure(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.ErrUpstreamFailure(c.name,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.ErrUpstreamFailure(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// SummarizerClient talks to the summarization service.
type SummarizerClient struct {
	httpClient
}

// NewSummarizerClient builds a summarizer client for the given base URL.
func NewSummarizerClient(baseURL string, timeout time.Duration) *SummarizerClient {
	return &SummarizerClient{newHTTPClient("summarizer", baseURL, timeout)}
}

// Summarize sends the extracted text and options to the summarizer.
func (c *SummarizerClient) Summarize(ctx context.Context, text string, opts SummaryOptions) (Summary, error) {
	req := struct {
		Text    string         `json:"text"`
		Options SummaryOptions `json:"options"`
	}{Text: text, Options: opts}
	var out Summary
	if err := c.postJSON(ctx, "/summarize", req, &out); err != nil {
		return Summary{}, err
	}
	if out.Text == "" {
		return Summary{}, apperrors.ErrUpstreamFailure(c.name, fmt.Errorf("empty summary"))
	}
	return out, nil
}

// VisualClient talks to the graphical abstract service.
type VisualClient struct {
	httpClient
}

// NewVisualClient builds a visual generator client for the given base URL.
func NewVisualClient(baseURL string, timeout time.Duration) *VisualClient {
	return &VisualClient{newHTTPClient("visual", baseURL, timeout)}
}

// Generate requests a graphical abstract PNG for the summary.
func (c *VisualClient) Generate(ctx context.Context, summary Summary) ([]byte, error) {
	var out struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := c.postJSON(ctx, "/generate", summary, &out); err != nil {
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(out.ImageBase64)
	if err != nil || len(img) == 0 {
		return nil, apperrors.ErrUpstreamFailure(c.name, fmt.Errorf("invalid image payload"))
	}
	return img, nil
}

// SpeechClient talks to the speech synthesis service.
type SpeechClient struct {
	httpClient
}

// NewSpeechClient builds a speech synthesizer client for the given base URL.
func NewSpeechClient(baseURL string, timeout time.Duration) *SpeechClient {
	return &SpeechClient{newHTTPClient("speech", baseURL, timeout)}
}

// Synthesize requests voiceover audio for the text.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	req := struct {
		Text string `json:"text"`
	}{Text: text}
	var out struct {
		AudioBase64 string `json:"audio_base64"`
	}
	if err := c.postJSON(ctx, "/synthesize", req, &out); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioBase64)
	if err != nil || len(audio) == 0 {
		return nil, apperrors.ErrUpstreamFailure(c.name, fmt.Errorf("invalid audio payload"))
	}
	return audio, nil
}

// RendererClient talks to the document rendering service.
type RendererClient struct {
	httpClient
}

// NewRendererClient builds a renderer client for the given base URL.
func NewRendererClient(baseURL string, timeout time.Duration) *RendererClient {
	return &RendererClient{newHTTPClient("renderer", baseURL, timeout)}
}

// RenderSummaryPDF requests the summary PDF.
func (c *RendererClient) RenderSummaryPDF(ctx context.Context, summary Summary) ([]byte, error) {
	return c.renderDocument(ctx, "/render/summary-pdf", struct {
		Summary Summary `json:"summary"`
	}{Summary: summary})
}

// RenderPresentation requests the presentation deck, with the graphical
// abstract embedded when present.
func (c *RendererClient) RenderPresentation(ctx context.Context, summary Summary, visual []byte) ([]byte, error) {
	req := struct {
		Summary     Summary `json:"summary"`
		ImageBase64 string  `json:"image_base64,omitempty"`
	}{Summary: summary}
	if len(visual) > 0 {
		req.ImageBase64 = base64.StdEncoding.EncodeToString(visual)
	}
	return c.renderDocument(ctx, "/render/presentation", req)
}

func (c *RendererClient) renderDocument(ctx context.Context, path string, req interface{}) ([]byte, error) {
	var out struct {
		DocumentBase64 string `json:"document_base64"`
	}
	if err := c.postJSON(ctx, path, req, &out); err != nil {
		return nil, err
	}
	doc, err := base64.StdEncoding.DecodeString(out.DocumentBase64)
	if err != nil || len(doc) == 0 {
		return nil, apperrors.ErrUpstreamFailure(c.name, fmt.Errorf("invalid document payload"))
	}
	return doc, nil
}
