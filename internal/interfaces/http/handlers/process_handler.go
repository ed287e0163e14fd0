package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application"
	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/infrastructure/gate"
	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// multipartOverhead is the slack allowed on top of the file cap for the
// multipart boundaries, part headers, and option form fields.
const multipartOverhead = 64 << 10

// ProcessHandler accepts paper uploads and runs the processing pipeline
// behind the concurrency gate.
type ProcessHandler struct {
	processor *application.Processor
	gate      *gate.Gate
	urls      *ArtifactURLBuilder
	metrics   *monitoring.Metrics
	maxBytes  int64
}

// NewProcessHandler builds the processing endpoint. maxBytes caps the upload
// size; metrics may be nil.
func NewProcessHandler(processor *application.Processor, g *gate.Gate, urls *ArtifactURLBuilder, metrics *monitoring.Metrics, maxBytes int64) *ProcessHandler {
	return &ProcessHandler{processor: processor, gate: g, urls: urls, metrics: metrics, maxBytes: maxBytes}
}

// Process handles POST /process-paper/.
func (h *ProcessHandler) Process(c *gin.Context) {
	// Cap the body before multipart parsing so an oversized upload is cut
	// off at the wire instead of being spooled to disk first.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			dto.SendError(c, apperrors.ErrPayloadTooLarge(h.maxBytes))
			return
		}
		dto.SendError(c, apperrors.ErrPayloadInvalid("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	opts := application.Options{
		SummaryLength:  c.PostForm("summary_length"),
		Quality:        c.PostForm("quality"),
		GenerateVisual: formBool(c, "generate_visual", true),
		GenerateAudio:  formBool(c, "generate_audio", true),
	}

	// Callers queue here until a processing slot frees up; a dropped
	// connection abandons the wait.
	if err := h.gate.Acquire(c.Request.Context()); err != nil {
		dto.SendError(c, apperrors.ErrInternal(err))
		return
	}
	defer h.trackInflight()
	defer h.gate.Release()
	h.trackInflight()

	res, err := h.processor.Process(c.Request.Context(), file,
		header.Filename, header.Header.Get("Content-Type"), opts)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	artifacts := make(map[string]string, len(res.Artifacts))
	for _, name := range res.Artifacts {
		artifacts[string(name)] = h.urls.URL(res.RequestID, string(name))
	}
	c.JSON(http.StatusOK, dto.ProcessResponse{
		RequestID: res.RequestID,
		Status:    "completed",
		Artifacts:    artifacts,
		Warnings:     res.Warnings,
		SpeakerNotes: res.SpeakerNotes,
		PageCount:    res.PageCount,
		Truncated:    res.Truncated,
	})
}

func (h *ProcessHandler) trackInflight() {
	if h.metrics != nil {
		h.metrics.InflightRequests.Set(float64(h.gate.InFlight()))
	}
}

func formBool(c *gin.Context, field string, def bool) bool {
	v := c.PostForm(field)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
