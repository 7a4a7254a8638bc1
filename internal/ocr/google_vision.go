package ocr

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"invex/pkg/models"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// whitespaceRuns collapses multi-space gaps the recognizer leaves between
// columns, matching what the downstream pattern matching expects.
var whitespaceRuns = regexp.MustCompile(`[^\S\n]{2,}`)

// GoogleVisionService implements Service using Google Cloud Vision API.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionService creates an OCR service with credentials from the
// environment: GOOGLE_CREDENTIALS (inline JSON) is checked first, then
// GOOGLE_APPLICATION_CREDENTIALS (file path), then application default
// credentials.
func NewGoogleVisionService(ctx context.Context) (Service, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionService{client: client}, nil
}

// NewGoogleVisionServiceWithClient creates an OCR service with an explicit
// client (for testing).
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient) Service {
	return &GoogleVisionService{client: client}
}

// ProcessPDF runs document text detection over every page of the PDF.
func (g *GoogleVisionService) ProcessPDF(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ProcessPDF"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrPDFTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	result, err := g.buildResult(fileResp)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// buildResult converts the Vision API response into per-page text and
// line metadata. Each recognized paragraph becomes one PageLine.
func (g *GoogleVisionService) buildResult(fileResp *visionpb.AnnotateFileResponse) (*Result, error) {
	pageCount := len(fileResp.Responses)
	if pageCount == 0 {
		return nil, ErrEmptyDocument
	}
	if pageCount > MaxPagesSync {
		return nil, WrapOCRError("buildResult", ErrTooManyPages, fmt.Sprintf("document has %d pages", pageCount))
	}

	result := &Result{}
	anyText := false

	for pageIdx, pageResp := range fileResp.Responses {
		if pageResp.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, pageResp.Error.Message)
		}

		page := Page{}
		if annotation := pageResp.FullTextAnnotation; annotation != nil {
			page.Lines = collectLines(annotation, pageIdx+1)

			var texts []string
			for _, ln := range page.Lines {
				texts = append(texts, ln.Text)
			}
			page.Text = strings.TrimSpace(strings.Join(texts, "\n"))
			page.Text = whitespaceRuns.ReplaceAllString(page.Text, " ")
			if page.Text != "" {
				anyText = true
			}
		}
		result.Pages = append(result.Pages, page)
	}

	if !anyText {
		return nil, ErrEmptyDocument
	}
	return result, nil
}

// collectLines walks the block/paragraph hierarchy of a page annotation and
// emits one PageLine per paragraph with its confidence and xywh box.
func collectLines(annotation *visionpb.TextAnnotation, pageNum int) []models.PageLine {
	var lines []models.PageLine
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				text := paragraphText(paragraph)
				if text == "" {
					continue
				}
				x, y, w, h := boundingBox(paragraph.BoundingBox)
				lines = append(lines, models.PageLine{
					Page:  pageNum,
					Text:  text,
					Score: round3(float64(paragraph.Confidence)),
					Box:   [4]int{x, y, w, h},
				})
			}
		}
	}
	return lines
}

// paragraphText reassembles a paragraph from its word symbols, honoring the
// detected break types for spacing.
func paragraphText(paragraph *visionpb.Paragraph) string {
	var b strings.Builder
	for _, word := range paragraph.Words {
		for _, symbol := range word.Symbols {
			b.WriteString(symbol.Text)
			if prop := symbol.Property; prop != nil && prop.DetectedBreak != nil {
				switch prop.DetectedBreak.Type {
				case visionpb.TextAnnotation_DetectedBreak_SPACE,
					visionpb.TextAnnotation_DetectedBreak_SURE_SPACE,
					visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE:
					b.WriteString(" ")
				}
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// boundingBox reduces a bounding polygon to an axis-aligned x, y, w, h box.
func boundingBox(poly *visionpb.BoundingPoly) (x, y, w, h int) {
	if poly == nil || len(poly.Vertices) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := int(poly.Vertices[0].X), int(poly.Vertices[0].Y)
	maxX, maxY := minX, minY
	for _, v := range poly.Vertices[1:] {
		minX = min(minX, int(v.X))
		minY = min(minY, int(v.Y))
		maxX = max(maxX, int(v.X))
		maxY = max(maxY, int(v.Y))
	}
	return minX, minY, maxX - minX, maxY - minY
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Close closes the underlying Vision client.
func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
