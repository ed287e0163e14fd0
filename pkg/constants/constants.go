// Package constants defines system-wide constants for the PaperSynth backend.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Artifact Constants
// ================================================================================

// ArtifactName identifies a file produced inside a request workspace.
type ArtifactName string

const (
	// ArtifactPaper is the uploaded source document.
	ArtifactPaper ArtifactName = "paper.pdf"

	// ArtifactSummary is the rendered summary document.
	ArtifactSummary ArtifactName = "summary.pdf"

	// ArtifactAbstract is the generated graphical abstract image.
	ArtifactAbstract ArtifactName = "graphical_abstract.png"

	// ArtifactVoiceover is the synthesized narration audio.
	ArtifactVoiceover ArtifactName = "voiceover.mp3"

	// ArtifactPresentation is the generated slide deck.
	ArtifactPresentation ArtifactName = "presentation.pptx"
)

// DerivedArtifacts lists every artifact a request can produce, in the order
// they are reported by the status endpoint. The uploaded paper itself is not
// included.
var DerivedArtifacts = []ArtifactName{
	ArtifactSummary,
	ArtifactAbstract,
	ArtifactVoiceover,
	ArtifactPresentation,
}

// ================================================================================
// Request Option Constants
// ================================================================================

// SummaryLength selects the target length of the generated summary.
type SummaryLength string

const (
	SummaryLengthShort  SummaryLength = "short"
	SummaryLengthMedium SummaryLength = "medium"
	SummaryLengthLong   SummaryLength = "long"
)

// Valid reports whether the value is an accepted summary length.
func (l SummaryLength) Valid() bool {
	switch l {
	case SummaryLengthShort, SummaryLengthMedium, SummaryLengthLong:
		return true
	}
	return false
}

// QualityPreset trades generation time against output quality for the
// graphical abstract.
type QualityPreset string

const (
	PresetFast     QualityPreset = "fast"
	PresetBalanced QualityPreset = "balanced"
	PresetQuality  QualityPreset = "quality"
)

// Normalize coerces unknown presets to the balanced default.
func (p QualityPreset) Normalize() QualityPreset {
	switch p {
	case PresetFast, PresetBalanced, PresetQuality:
		return p
	}
	return PresetBalanced
}

// ================================================================================
// Admission Defaults
// ================================================================================

const (
	// DefaultRateLimitPerMinute is the per-client request budget.
	DefaultRateLimitPerMinute = 10

	// DefaultConcurrencyLimit bounds simultaneous expensive operations.
	DefaultConcurrencyLimit = 2

	// DefaultBucketIdleTTL is how long an unused client bucket survives
	// before the store purges it.
	DefaultBucketIdleTTL = 30 * time.Minute
)

// ================================================================================
// Workspace Defaults
// ================================================================================

const (
	// DefaultWorkspaceTTL is the age after which a workspace is evicted.
	DefaultWorkspaceTTL = 24 * time.Hour

	// DefaultSizeCapBytes caps the total bytes under the workspace root (1 GiB).
	DefaultSizeCapBytes = int64(1) << 30

	// DefaultSweepInterval is the cadence of the background eviction sweep.
	DefaultSweepInterval = time.Hour

	// MinSizeCapBytes is the floor applied to misconfigured size caps (100 MiB).
	MinSizeCapBytes = int64(100) << 20
)

// ================================================================================
// Upload Limits
// ================================================================================

const (
	// DefaultMaxUploadBytes caps an uploaded document (10 MiB).
	DefaultMaxUploadBytes = int64(10) << 20

	// DefaultMaxPDFPages bounds how many pages are extracted.
	DefaultMaxPDFPages = 100

	// DefaultMaxTextChars bounds how much extracted text is forwarded.
	DefaultMaxTextChars = 800_000
)

// PDFContentTypes enumerates accepted upload content types, including the
// legacy aliases some clients still send.
var PDFContentTypes = map[string]struct{}{
	"application/pdf":     {},
	"application/x-pdf":   {},
	"application/acrobat": {},
	"applications/pdf":    {},
	"text/pdf":            {},
	"text/x-pdf":          {},
}

// ================================================================================
// Signed Download Defaults
// ================================================================================

const (
	// DefaultDownloadTTL is the lifetime of a signed artifact URL.
	DefaultDownloadTTL = 15 * time.Minute

	// StatusDownloadTTL is the shorter lifetime used for URLs minted by the
	// status endpoint, which clients poll repeatedly.
	StatusDownloadTTL = 10 * time.Minute
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the correlation id for a request.
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyClientKey carries the rate-limit client key.
	ContextKeyClientKey ContextKey = "client_key"
)

// HeaderRequestID is the response header exposing the correlation id.
const HeaderRequestID = "X-Request-ID"
