// Package ocr provides OCR (Optical Character Recognition) for scanned
// invoice PDFs using the Google Cloud Vision API.
//
// The extraction core consumes OCR output as plain text, one string per
// page; this package additionally reports per-line confidence scores and
// bounding boxes for layout-adjacent tooling and debug dumps.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous processing
package ocr

import (
	"context"
	"io"
	"time"

	"invex/pkg/models"
)

// Service is the OCR collaborator interface consumed by the extraction
// pipelines.
type Service interface {
	// ProcessPDF runs document text detection over every page of the PDF
	// and returns per-page text with line-level metadata, in page order.
	ProcessPDF(ctx context.Context, pdfData io.Reader) (*Result, error)
}

// Page is the OCR output for a single page.
type Page struct {
	// Text is the recognized page text, one recognized line per text line,
	// with runs of whitespace collapsed.
	Text string `json:"text"`

	// Lines carries the per-line confidence scores and bounding boxes
	// matching Text line for line.
	Lines []models.PageLine `json:"lines"`
}

// Result is the OCR output for a whole document.
type Result struct {
	// Pages holds one entry per PDF page, in reading order.
	Pages []Page `json:"pages"`

	// ProcessedAt is when OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR call took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// PageTexts returns just the page texts, in page order, as consumed by the
// extraction core.
func (r *Result) PageTexts() []string {
	texts := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		texts[i] = p.Text
	}
	return texts
}

// AllLines flattens the per-page line metadata into a single slice, the
// shape written to layout_input.json in debug mode.
func (r *Result) AllLines() []models.PageLine {
	var lines []models.PageLine
	for _, p := range r.Pages {
		lines = append(lines, p.Lines...)
	}
	return lines
}
