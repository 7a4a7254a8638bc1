// Package layout extracts invoice data with a layout-aware document model.
// A Document AI processor classifies regions of the scanned pages; the
// returned entities are mapped both to the canonical invoice record and to
// labeled page regions that can be drawn onto annotated page images.
package layout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invex/internal/extract"
	"invex/internal/logger"
	"invex/pkg/models"
)

const (
	// MaxDocumentSizeBytes is the maximum document size for processing (20MB)
	MaxDocumentSizeBytes = 20 * 1024 * 1024

	// DefaultTimeout bounds a single processor call
	DefaultTimeout = 60 * time.Second
)

// Config holds the Document AI processor configuration.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// Region is a labeled page region reported by the layout model, with
// coordinates on the annotation canvas.
type Region struct {
	Page  int     `json:"page"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   [4]int  `json:"box"`
}

// Result carries the extracted record together with the labeled regions
// used for page annotation.
type Result struct {
	Record  models.InvoiceRecord
	Regions []Region
}

// Extractor implements layout-based invoice extraction using Document AI.
type Extractor struct {
	client *documentai.DocumentProcessorClient
	config Config
	log    zerolog.Logger
}

// NewExtractor creates an extractor with configuration from the environment.
// Requires GOOGLE_PROJECT_ID (or GOOGLE_CLOUD_PROJECT) and
// GOOGLE_PROCESSOR_ID (or DOCUMENT_AI_PROCESSOR_ID); GOOGLE_LOCATION
// defaults to "us". Credentials resolve as GOOGLE_CREDENTIALS, then
// GOOGLE_APPLICATION_CREDENTIALS, then application defaults.
func NewExtractor(ctx context.Context) (*Extractor, error) {
	const op = "NewExtractor"

	config := Config{
		ProjectID:   getEnvVar("GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		Location:    getEnvVar("GOOGLE_LOCATION", "GOOGLE_CLOUD_LOCATION"),
		ProcessorID: getEnvVar("GOOGLE_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_ID"),
		Timeout:     DefaultTimeout,
	}

	if config.ProjectID == "" {
		return nil, WrapLayoutError(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapLayoutError(op, ErrInvalidConfiguration, "GOOGLE_PROCESSOR_ID or DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapLayoutError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapLayoutError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewExtractorWithConfig(config, client), nil
}

// NewExtractorWithConfig creates an extractor with explicit config and
// client (for testing).
func NewExtractorWithConfig(config Config, client *documentai.DocumentProcessorClient) *Extractor {
	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("layout-extractor"),
	}
}

// Extract runs the layout model over the PDF and maps its entities to the
// invoice record and labeled regions.
func (e *Extractor) Extract(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "Extract"

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapLayoutError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxDocumentSizeBytes {
		return nil, WrapLayoutError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapLayoutError(op, ErrInvalidPDF, "missing PDF header")
	}

	processCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := e.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, e.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapLayoutError(op, ErrProcessingFailed, "no document in response")
	}

	result := e.mapDocument(resp.Document)

	e.log.Info().
		Int("entities", len(resp.Document.Entities)).
		Int("regions", len(result.Regions)).
		Int("items", len(result.Record.Items)).
		Msg("Layout extraction completed")

	return result, nil
}

// processorName constructs the full processor resource name.
func (e *Extractor) processorName() string {
	if e.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			e.config.ProjectID, e.config.Location, e.config.ProcessorID, e.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, e.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to layout errors.
func (e *Extractor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapLayoutError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapLayoutError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", e.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapLayoutError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapLayoutError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapLayoutError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// mapDocument converts Document AI entities to the invoice record and the
// labeled regions used for annotation.
func (e *Extractor) mapDocument(doc *documentaipb.Document) *Result {
	result := &Result{}
	record := &result.Record

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)

		if region, ok := entityRegion(entity); ok {
			result.Regions = append(result.Regions, region)
		}

		e.log.Debug().
			Str("entity_type", entity.Type).
			Str("value", value).
			Float32("confidence", entity.Confidence).
			Msg("Processing layout entity")

		switch entity.Type {
		case "supplier_name", "vendor_name":
			record.Supplier.Name = value
		case "supplier_tax_id", "vat_number":
			record.Supplier.VAT = value
		case "invoice_id", "invoice_number":
			record.InvoiceNo = value
		case "invoice_date":
			record.Date = value
		case "line_item":
			record.Items = append(record.Items, mapLineItem(entity))
		case "net_amount", "subtotal_amount":
			record.Totals.Subtotal = extract.NormalizeDecimal(value)
		case "total_tax_amount", "vat_amount":
			vat := extract.NormalizeDecimal(value)
			record.Totals.VAT = &vat
		case "total_amount", "gross_amount":
			record.Totals.Total = extract.NormalizeDecimal(value)
		}
	}

	return result
}

// mapLineItem assembles a line item from a line_item entity's properties.
func mapLineItem(entity *documentaipb.Document_Entity) models.LineItem {
	var item models.LineItem
	for _, prop := range entity.Properties {
		value := strings.TrimSpace(prop.MentionText)
		switch prop.Type {
		case "line_item/description":
			item.Description = value
		case "line_item/product_code":
			item.ProductCode = value
		case "line_item/quantity":
			item.Qty = int(extract.NormalizeDecimal(value))
		case "line_item/unit_price":
			item.UnitPrice = extract.NormalizeDecimal(value)
		case "line_item/amount":
			item.LineTotal = extract.NormalizeDecimal(value)
		case "line_item/purchase_order":
			item.PONumber = value
		}
	}
	return item
}

// entityRegion projects an entity's page anchor onto the annotation canvas.
func entityRegion(entity *documentaipb.Document_Entity) (Region, bool) {
	anchor := entity.PageAnchor
	if anchor == nil || len(anchor.PageRefs) == 0 {
		return Region{}, false
	}

	ref := anchor.PageRefs[0]
	poly := ref.BoundingPoly
	if poly == nil || len(poly.NormalizedVertices) == 0 {
		return Region{}, false
	}

	minX, minY := poly.NormalizedVertices[0].X, poly.NormalizedVertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range poly.NormalizedVertices[1:] {
		minX = min(minX, v.X)
		minY = min(minY, v.Y)
		maxX = max(maxX, v.X)
		maxY = max(maxY, v.Y)
	}

	x := int(minX * float32(AnnotationWidth))
	y := int(minY * float32(AnnotationHeight))
	w := int((maxX - minX) * float32(AnnotationWidth))
	h := int((maxY - minY) * float32(AnnotationHeight))

	return Region{
		Page:  int(ref.Page) + 1,
		Label: entity.Type,
		Score: float64(entity.Confidence),
		Box:   [4]int{x, y, w, h},
	}, true
}

// getEnvVar tries multiple environment variable names and returns the first
// non-empty value.
func getEnvVar(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// Close closes the underlying Document AI client.
func (e *Extractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
