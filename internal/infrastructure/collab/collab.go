// Package collab defines the narrow interfaces the processing pipeline uses
// to talk to external collaborator services, plus HTTP implementations.
package collab

import "context"

// SummaryOptions controls summary generation.
type SummaryOptions struct {
	Length  string `json:"length"`
	Quality string `json:"quality"`
}

// Summary is the structured result of summarizing a paper.
type Summary struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	SpeakerNotes string `json:"speaker_notes,omitempty"`
}

// Pinger reports collaborator liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Summarizer condenses extracted paper text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts SummaryOptions) (Summary, error)
}

// VisualGenerator produces a graphical abstract PNG from a summary. It is the
// expensive collaborator and is constructed lazily.
type VisualGenerator interface {
	Generate(ctx context.Context, summary Summary) ([]byte, error)
}

// SpeechSynthesizer turns summary text into voiceover audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Renderer produces the summary PDF and the presentation deck.
type Renderer interface {
	RenderSummaryPDF(ctx context.Context, summary Summary) ([]byte, error)
	RenderPresentation(ctx context.Context, summary Summary, visual []byte) ([]byte, error)
}
