package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invex/internal/extract"
	"invex/internal/layout"
	"invex/internal/llm"
	"invex/internal/logger"
	"invex/internal/ocr"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract structured invoice data from a scanned PDF",
	Long: `Extract supplier, line items and totals from a scanned PDF invoice.

Three methods are supported:
  regex   - deterministic pattern matching over OCR text (default,
            needs Google Cloud Vision credentials for the OCR step)
  llm     - LLM-based extraction over OCR text (needs OPENAI_API_KEY)
  layout  - layout-model extraction via Document AI, with annotated
            page images (needs GOOGLE_PROJECT_ID and a processor ID)

Results are written to <out>/<method>/<pdf-stem>/invoice.json. The llm
method adds usage.json; the layout method adds annotated page images
under pages/. With --debug the OCR-based methods also keep per-page
text files, confidence statistics and line metadata.`,
	Example: `  # Pattern-based extraction of invoice.pdf into outputs/regex/invoice/
  invex extract invoice.pdf

  # LLM-based extraction with debug artifacts
  invex extract invoice.pdf --method llm --debug

  # Layout-model extraction with a custom output root
  invex extract invoice.pdf --method layout --out /tmp/runs

  # Process with custom timeout
  invex extract large-invoice.pdf --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("method", "m", "regex", "Extraction method: regex, llm or layout")
	extractCmd.Flags().StringP("out", "o", "outputs", "Output root directory")
	extractCmd.Flags().Bool("debug", false, "Keep per-page OCR artifacts")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	method, _ := cmd.Flags().GetString("method")
	outRoot, _ := cmd.Flags().GetString("out")
	debug, _ := cmd.Flags().GetBool("debug")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("method", method).
		Str("out", outRoot).
		Bool("debug", debug).
		Int("timeout", timeoutSecs).
		Msg("Starting invoice extraction")

	fileInfo, err := validatePDFFile(pdfPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outDir := filepath.Join(outRoot, method, stem)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	log.Info().
		Str("file", pdfPath).
		Int64("size", fileInfo.Size()).
		Str("out_dir", outDir).
		Msg("Processing PDF")

	switch method {
	case "regex":
		err = runRegexExtraction(ctx, pdfPath, outDir, debug, log)
	case "llm":
		err = runLLMExtraction(ctx, pdfPath, outDir, debug, log)
	case "layout":
		err = runLayoutExtraction(ctx, pdfPath, outDir, log)
	default:
		return fmt.Errorf("unknown extraction method %q (expected regex, llm or layout)", method)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Saved extraction results to %s\n", outDir)
	return nil
}

// runRegexExtraction runs OCR and the pattern-based extraction core.
func runRegexExtraction(ctx context.Context, pdfPath, outDir string, debug bool, log zerolog.Logger) error {
	result, err := ocrDocument(ctx, pdfPath, log)
	if err != nil {
		return err
	}

	record := extract.Extract(result.PageTexts())

	log.Info().
		Str("supplier", record.Supplier.Name).
		Str("invoice_no", record.InvoiceNo).
		Int("items", len(record.Items)).
		Msg("Pattern extraction completed")

	if err := writeJSONFile(filepath.Join(outDir, "invoice.json"), record); err != nil {
		return err
	}
	if debug {
		return saveOCRArtifacts(outDir, result, log)
	}
	return nil
}

// runLLMExtraction runs OCR and the LLM extractor.
func runLLMExtraction(ctx context.Context, pdfPath, outDir string, debug bool, log zerolog.Logger) error {
	result, err := ocrDocument(ctx, pdfPath, log)
	if err != nil {
		return err
	}

	extractor, err := llm.NewExtractor()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create LLM extractor")
		return fmt.Errorf("failed to create LLM extractor: %w\n\n"+
			"Set OPENAI_API_KEY in the environment or in your .env file", err)
	}

	record, usage, err := extractor.Extract(ctx, result.PageTexts())
	if err != nil {
		log.Error().Err(err).Msg("LLM extraction failed")
		return fmt.Errorf("LLM extraction failed: %w", err)
	}

	if err := writeJSONFile(filepath.Join(outDir, "invoice.json"), record); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(outDir, "usage.json"), usage); err != nil {
		return err
	}
	if debug {
		return saveOCRArtifacts(outDir, result, log)
	}
	return nil
}

// runLayoutExtraction runs the layout model and saves annotated pages.
func runLayoutExtraction(ctx context.Context, pdfPath, outDir string, log zerolog.Logger) error {
	extractor, err := layout.NewExtractor(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create layout extractor")
		return fmt.Errorf("failed to create layout extractor: %w\n\n"+
			"Set GOOGLE_PROJECT_ID and GOOGLE_PROCESSOR_ID (plus Google Cloud\n"+
			"credentials) in the environment or in your .env file", err)
	}
	defer extractor.Close()

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer pdfFile.Close()

	result, err := extractor.Extract(ctx, pdfFile)
	if err != nil {
		log.Error().Err(err).Msg("Layout extraction failed")
		return fmt.Errorf("layout extraction failed: %w", err)
	}

	if err := writeJSONFile(filepath.Join(outDir, "invoice.json"), result.Record); err != nil {
		return err
	}

	return saveAnnotatedPages(pdfPath, outDir, result.Regions, log)
}

// saveAnnotatedPages rasters the PDF and draws the labeled regions onto
// each page under <outDir>/pages/.
func saveAnnotatedPages(pdfPath, outDir string, regions []layout.Region, log zerolog.Logger) error {
	images, err := layout.RasterPages(pdfPath, layout.DefaultDPI)
	if err != nil {
		log.Error().Err(err).Msg("Failed to rasterize PDF pages")
		return fmt.Errorf("failed to rasterize PDF pages: %w", err)
	}

	pagesDir := filepath.Join(outDir, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}

	for i, img := range images {
		annotated := layout.AnnotatePage(img, i+1, regions)
		path := filepath.Join(pagesDir, fmt.Sprintf("page%d_layout.png", i+1))
		if err := imaging.Save(annotated, path); err != nil {
			return fmt.Errorf("failed to save annotated page %d: %w", i+1, err)
		}
	}

	log.Info().Int("pages", len(images)).Str("dir", pagesDir).Msg("Saved annotated pages")
	return nil
}

// ocrDocument creates the OCR service and processes the PDF.
func ocrDocument(ctx context.Context, pdfPath string, log zerolog.Logger) (*ocr.Result, error) {
	service, err := createOCRService(ctx, log)
	if err != nil {
		return nil, err
	}

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		log.Error().Err(err).Str("file", pdfPath).Msg("Failed to open PDF file")
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() {
		if closeErr := pdfFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close PDF file")
		}
	}()

	result, err := service.ProcessPDF(ctx, pdfFile)
	if err != nil {
		return nil, handleOCRError(err, log)
	}

	log.Info().
		Int("pages", len(result.Pages)).
		Dur("duration", result.ProcessingDuration).
		Msg("OCR processing completed")

	return result, nil
}

// saveOCRArtifacts writes the per-page debug files: texts/pageN.txt,
// ocr_stats.json and layout_input.json.
func saveOCRArtifacts(outDir string, result *ocr.Result, log zerolog.Logger) error {
	textsDir := filepath.Join(outDir, "texts")
	if err := os.MkdirAll(textsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create texts directory: %w", err)
	}

	for i, page := range result.Pages {
		path := filepath.Join(textsDir, fmt.Sprintf("page%d.txt", i+1))
		if err := os.WriteFile(path, []byte(page.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write page text: %w", err)
		}
	}

	if err := writeJSONFile(filepath.Join(outDir, "ocr_stats.json"), result.Stats()); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(outDir, "layout_input.json"), result.AllLines()); err != nil {
		return err
	}

	log.Info().Str("dir", outDir).Msg("Saved OCR debug artifacts")
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// validatePDFFile checks if the file exists, is readable, and appears to be a PDF
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", pdfPath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("PDF file exceeds maximum size limit")
		return nil, fmt.Errorf("PDF file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxFileSizeBytes)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling extraction")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// createOCRService creates and configures the OCR service
func createOCRService(ctx context.Context, log zerolog.Logger) (ocr.Service, error) {
	hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""

	if !hasCredentials {
		log.Error().Msg("Google Cloud credentials not configured")
		return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
			"3. Use Application Default Credentials (if gcloud is configured):\n" +
			"   gcloud auth application-default login\n\n" +
			"4. Check that your .env file contains the credentials variables")
	}

	service, err := ocr.NewGoogleVisionService(ctx)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().
				Err(err).
				Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n"+
				"1. Credentials file exists and is readable\n"+
				"2. JSON format is valid\n"+
				"3. Service account has proper permissions\n\n"+
				"Original error: %w", err)
		}
		log.Error().
			Err(err).
			Msg("Failed to create OCR service")
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	log.Debug().Msg("OCR service created successfully")
	return service, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrPDFTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum 5 pages). Try splitting into smaller files")
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. The PDF may contain only images or be corrupted")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n"+
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path\n"+
			"2. Or set GOOGLE_CREDENTIALS with inline JSON\n"+
			"3. Ensure the service account has 'Cloud Vision API User' role\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account has the 'Cloud Vision API User' role")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud Vision API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}
