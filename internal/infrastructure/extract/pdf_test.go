package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// writeMinimalPDF builds a one-page PDF with the given text drawn in
// Helvetica, computing the cross-reference table offsets as it goes.
func writeMinimalPDF(t *testing.T, text string) string {
	t.Helper()

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n",
		"", // content stream, filled below
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

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestExtractFileReadsText(t *testing.T) {
	path := writeMinimalPDF(t, "Hello PaperSynth")

	res, err := NewExtractor(0, 0).ExtractFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1, res.PageCount)
	assert.False(t, res.Truncated)
	assert.Contains(t, res.Text, "Hello")
}

func TestExtractFileCharCeiling(t *testing.T) {
	path := writeMinimalPDF(t, "Hello PaperSynth")

	res, err := NewExtractor(0, 5).ExtractFile(path)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Text), 5)
}

func TestExtractFileRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, no pdf here"), 0o644))

	_, err := NewExtractor(0, 0).ExtractFile(path)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodePayloadInvalid, appErr.Code())
}

func TestExtractFileMissing(t *testing.T) {
	_, err := NewExtractor(0, 0).ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
