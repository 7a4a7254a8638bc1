package llm_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"invex/internal/llm"
)

// Example demonstrates LLM-based extraction over OCR page texts.
func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// OPENAI_API_KEY is read from the environment.
	extractor, err := llm.NewExtractor()
	if err != nil {
		log.Fatal(err)
	}

	pages := []string{
		"NORTHSIDE TECH LTD\nInvoice Number: INV-2024-0042",
		"Subtotal: $50.00\nTotal: $60.00",
	}

	record, usage, err := extractor.Extract(ctx, pages)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	fmt.Printf("%s: %d items, %d tokens\n",
		record.InvoiceNo, len(record.Items), usage.TotalTokens)
}
