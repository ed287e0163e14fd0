// Package extract pulls plain text out of uploaded PDF files.
package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// Result is the outcome of extracting text from one PDF.
type Result struct {
	Text      string
	PageCount int
	Truncated bool
}

// Extractor reads PDF text with page and character ceilings. Pages past
// MaxPages and characters past MaxChars are dropped, not failed.
type Extractor struct {
	MaxPages int
	MaxChars int
}

// NewExtractor builds an extractor with the given ceilings. Zero or negative
// values disable the corresponding limit.
func NewExtractor(maxPages, maxChars int) *Extractor {
	return &Extractor{MaxPages: maxPages, MaxChars: maxChars}
}

// ExtractFile extracts text from the PDF at path.
func (e *Extractor) ExtractFile(path string) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, apperrors.ErrPayloadInvalid("file is not a readable PDF").WithCause(err)
	}
	defer f.Close()

	return e.extract(r)
}

func (e *Extractor) extract(r *pdf.Reader) (Result, error) {
	res := Result{PageCount: r.NumPage()}

	pages := res.PageCount
	if e.MaxPages > 0 && pages > e.MaxPages {
		pages = e.MaxPages
		res.Truncated = true
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if e.MaxChars > 0 && sb.Len() >= e.MaxChars {
			res.Truncated = true
			break
		}
	}

	text := sb.String()
	if e.MaxChars > 0 && len(text) > e.MaxChars {
		text = text[:e.MaxChars]
	}
	res.Text = strings.TrimSpace(text)

	if res.Text == "" {
		return res, apperrors.ErrPayloadInvalid("no extractable text in PDF")
	}
	return res, nil
}
