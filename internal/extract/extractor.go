package extract

import (
	"strings"

	"invex/pkg/models"
)

// Extract assembles a complete InvoiceRecord from per-page OCR text, one
// string per page in page order. It is a pure function: single-threaded,
// no I/O, no failure modes. Fields that cannot be recovered from the text
// keep their zero values.
func Extract(pages []string) models.InvoiceRecord {
	combined := strings.Join(pages, "\n")

	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	fallbackPO := DocumentPO(combined)
	invoiceNo, date := ExtractHeader(combined)

	return models.InvoiceRecord{
		Supplier:  ExtractSupplier(firstPage),
		InvoiceNo: invoiceNo,
		Date:      date,
		Items:     ExtractLineItems(combined, fallbackPO),
		Totals:    ExtractTotals(combined),
	}
}
