// Package application orchestrates the paper processing pipeline.
package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/collab"
	"github.com/papersynth/papersynth/internal/infrastructure/extract"
	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/internal/infrastructure/resource"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	"github.com/papersynth/papersynth/pkg/constants"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
	"github.com/papersynth/papersynth/pkg/logger"
)

// Options are the per-request processing knobs.
type Options struct {
	SummaryLength  string
	Quality        string
	GenerateVisual bool
	GenerateAudio  bool
}

// Result describes a completed processing run. SpeakerNotes is set only when
// voiceover synthesis failed and the summary text stands in for it.
type Result struct {
	RequestID    string
	Artifacts    []constants.ArtifactName
	Warnings     []string
	SpeakerNotes string
	PageCount    int
	Truncated    bool
}

// VisualFactory builds the expensive visual generator on first use.
type VisualFactory func(ctx context.Context) (collab.VisualGenerator, error)

// Processor runs uploads through extraction, summarization, and rendering.
type Processor struct {
	cfg        *config.Config
	workspaces *workspace.Manager
	extractor  *extract.Extractor
	summarizer collab.Summarizer
	speech     collab.SpeechSynthesizer
	renderer   collab.Renderer

	visual        *resource.Loader[collab.VisualGenerator]
	visualFactory VisualFactory

	log     logger.Logger
	metrics *monitoring.Metrics
}

// NewProcessor wires the pipeline. speech may be nil when audio is disabled;
// visualFactory may be nil when visual generation is disabled. metrics may be
// nil in tests.
func NewProcessor(
	cfg *config.Config,
	workspaces *workspace.Manager,
	extractor *extract.Extractor,
	summarizer collab.Summarizer,
	speech collab.SpeechSynthesizer,
	renderer collab.Renderer,
	visualFactory VisualFactory,
	log logger.Logger,
	metrics *monitoring.Metrics,
) *Processor {
	return &Processor{
		cfg:           cfg,
		workspaces:    workspaces,
		extractor:     extractor,
		summarizer:    summarizer,
		speech:        speech,
		renderer:      renderer,
		visual:        resource.New[collab.VisualGenerator](),
		visualFactory: visualFactory,
		log:           log,
		metrics:       metrics,
	}
}

// ValidateUpload checks the upload's name and declared content type.
func ValidateUpload(filename, contentType string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return apperrors.ErrPayloadInvalid("only PDF uploads are accepted")
	}
	media := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		media = parsed
	}
	if _, ok := constants.PDFContentTypes[strings.ToLower(media)]; !ok {
		return apperrors.ErrPayloadInvalid(
			fmt.Sprintf("unsupported content type %q", contentType))
	}
	return nil
}

// ValidateOptions normalizes the processing options in place. An unknown
// summary length is rejected; an unknown quality preset is coerced.
func ValidateOptions(opts *Options) error {
	if opts.SummaryLength == "" {
		opts.SummaryLength = string(constants.SummaryLengthMedium)
	}
	if !constants.SummaryLength(opts.SummaryLength).Valid() {
		return apperrors.ErrPayloadInvalid(
			fmt.Sprintf("summary_length must be one of short, medium, long; got %q", opts.SummaryLength))
	}
	opts.Quality = string(constants.QualityPreset(opts.Quality).Normalize())
	return nil
}

// Process runs the full pipeline for one upload and returns the artifacts
// written to the request's workspace. Optional features degrade to warnings;
// summary and presentation failures abort the run.
func (p *Processor) Process(ctx context.Context, upload io.Reader, filename, contentType string, opts Options) (Result, error) {
	if err := ValidateOptions(&opts); err != nil {
		return Result{}, err
	}
	if err := ValidateUpload(filename, contentType); err != nil {
		return Result{}, err
	}

	requestID := uuid.New().String()
	res := Result{RequestID: requestID}

	ws, err := p.workspaces.Create(requestID)
	if err != nil {
		return res, apperrors.ErrInternal(err)
	}

	if err := p.savePaper(ws, upload); err != nil {
		return res, err
	}

	paperPath, _ := ws.ArtifactPath(string(constants.ArtifactPaper))
	extracted, err := p.extractor.ExtractFile(paperPath)
	if err != nil {
		return res, err
	}
	res.PageCount = extracted.PageCount
	res.Truncated = extracted.Truncated
	res.Artifacts = append(res.Artifacts, constants.ArtifactPaper)

	summary, err := p.summarizer.Summarize(ctx, extracted.Text, collab.SummaryOptions{
		Length:  opts.SummaryLength,
		Quality: opts.Quality,
	})
	if err != nil {
		return res, err
	}

	summaryPDF, err := p.renderer.RenderSummaryPDF(ctx, summary)
	if err != nil {
		return res, err
	}
	if err := p.writeArtifact(ws, constants.ArtifactSummary, summaryPDF); err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, constants.ArtifactSummary)

	var visual []byte
	if p.cfg.Features.Visual && opts.GenerateVisual {
		visual = p.generateVisual(ctx, ws, summary, &res)
	}

	if p.cfg.Features.Audio && opts.GenerateAudio {
		p.generateAudio(ctx, ws, &summary, &res)
	}

	deck, err := p.renderer.RenderPresentation(ctx, summary, visual)
	if err != nil {
		return res, err
	}
	if err := p.writeArtifact(ws, constants.ArtifactPresentation, deck); err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, constants.ArtifactPresentation)

	p.log.Info(ctx, "processing completed", logger.Fields{
		"workspace": requestID,
		"artifacts": len(res.Artifacts),
		"warnings":  len(res.Warnings),
		"pages":     res.PageCount,
	})
	return res, nil
}

// savePaper streams the upload into the workspace, rejecting it once the
// configured byte cap is crossed rather than buffering the whole body first.
func (p *Processor) savePaper(ws *workspace.Workspace, upload io.Reader) error {
	limit := p.cfg.Upload.MaxBytes
	n, err := ws.WriteArtifact(string(constants.ArtifactPaper), io.LimitReader(upload, limit+1))
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	if n > limit {
		return apperrors.ErrPayloadTooLarge(limit)
	}
	if n == 0 {
		return apperrors.ErrPayloadInvalid("empty upload")
	}
	return nil
}

func (p *Processor) generateVisual(ctx context.Context, ws *workspace.Workspace, summary collab.Summary, res *Result) []byte {
	if p.visualFactory == nil {
		p.warn(ctx, res, "visual",
			"graphical abstract unavailable: no generator configured")
		return nil
	}
	start := time.Now()
	gen, err := p.visual.GetOrLoad(ctx, resource.LoadFunc[collab.VisualGenerator](p.visualFactory))
	if p.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		p.metrics.RecordResourceLoad(result, time.Since(start))
	}
	if err != nil {
		p.warn(ctx, res, "visual",
			"graphical abstract unavailable: generator failed to load")
		return nil
	}

	img, err := gen.Generate(ctx, summary)
	if err != nil {
		p.warn(ctx, res, "visual",
			"graphical abstract unavailable: generation failed")
		return nil
	}
	if err := p.writeArtifact(ws, constants.ArtifactAbstract, img); err != nil {
		p.warn(ctx, res, "visual",
			"graphical abstract unavailable: could not be stored")
		return nil
	}
	res.Artifacts = append(res.Artifacts, constants.ArtifactAbstract)
	return img
}

// generateAudio synthesizes the voiceover. On failure the summary text is
// promoted to speaker notes so the presentation still carries narration.
func (p *Processor) generateAudio(ctx context.Context, ws *workspace.Workspace, summary *collab.Summary, res *Result) {
	audio, err := p.speech.Synthesize(ctx, summary.Text)
	if err == nil {
		if err = p.writeArtifact(ws, constants.ArtifactVoiceover, audio); err == nil {
			res.Artifacts = append(res.Artifacts, constants.ArtifactVoiceover)
			return
		}
	}
	if summary.SpeakerNotes == "" {
		summary.SpeakerNotes = summary.Text
	}
	res.SpeakerNotes = summary.SpeakerNotes
	p.warn(ctx, res, "audio",
		"voiceover unavailable: summary text supplied as speaker notes")
}

func (p *Processor) warn(ctx context.Context, res *Result, feature, message string) {
	res.Warnings = append(res.Warnings, message)
	if p.metrics != nil {
		p.metrics.PipelineWarnings.WithLabelValues(feature).Inc()
	}
	p.log.Warn(ctx, "pipeline degradation", logger.Fields{
		"workspace": res.RequestID,
		"feature":   feature,
		"detail":    message,
	})
}

func (p *Processor) writeArtifact(ws *workspace.Workspace, name constants.ArtifactName, data []byte) error {
	if _, err := ws.WriteArtifact(string(name), bytes.NewReader(data)); err != nil {
		return apperrors.ErrInternal(err)
	}
	return nil
}

// VisualLoader exposes the generator's load state for the health endpoint.
func (p *Processor) VisualLoader() *resource.Loader[collab.VisualGenerator] {
	return p.visual
}
