package ocr_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"invex/internal/ocr"
)

// Example demonstrates basic usage of the OCR service.
func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Credentials are resolved from the environment.
	service, err := ocr.NewGoogleVisionService(ctx)
	if err != nil {
		log.Fatal(err)
	}

	pdfFile, err := os.Open("invoice.pdf")
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer pdfFile.Close()

	result, err := service.ProcessPDF(ctx, pdfFile)
	if err != nil {
		log.Fatalf("OCR failed: %v", err)
	}

	stats := result.Stats()
	for i, page := range result.Pages {
		fmt.Printf("Page %d: %d lines, %.2f%% mean confidence\n",
			i+1, len(page.Lines), stats.Pages[i].MeanConf)
	}
}

// ExampleResult_PageTexts shows how the extraction core consumes OCR output.
func ExampleResult_PageTexts() {
	result := &ocr.Result{
		Pages: []ocr.Page{
			{Text: "Invoice Number: INV-001"},
			{Text: "Total: $120.00"},
		},
	}

	for _, text := range result.PageTexts() {
		fmt.Println(text)
	}
	// Output:
	// Invoice Number: INV-001
	// Total: $120.00
}
