package extract

import (
	"strings"

	"invex/pkg/models"
)

// supplierKeywords gates supplier-name candidates: a header line is only
// accepted as the supplier when it contains one of these tokens, which
// filters out addresses and slogans that also match the uppercase pattern.
var supplierKeywords = []string{"ltd", "inc", "corp", "solutions", "tech"}

// maxHeaderLines bounds the supplier scan to the top of the first page.
const maxHeaderLines = 10

// ExtractSupplier scans the first page's header lines for the supplier name
// and VAT number. At most the first 10 non-empty lines are considered and
// the scan stops early once both fields are found. Fields that cannot be
// located are returned empty.
func ExtractSupplier(firstPage string) models.Supplier {
	var supplier models.Supplier

	seen := 0
	for _, line := range strings.Split(firstPage, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		seen++
		if seen > maxHeaderLines {
			break
		}

		if supplier.Name == "" {
			if m := group(supplierNamePattern, line, "supplier"); m != "" && containsSupplierKeyword(line) {
				supplier.Name = strings.TrimSpace(m)
			}
		}
		if supplier.VAT == "" {
			if m := vatNumberPattern.FindStringSubmatch(line); m != nil {
				supplier.VAT = strings.TrimSpace(m[1])
			}
		}
		if supplier.Name != "" && supplier.VAT != "" {
			break
		}
	}
	return supplier
}

func containsSupplierKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range supplierKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractHeader recovers the invoice number and date from the whole
// document text. First match wins; absent fields come back empty.
func ExtractHeader(text string) (invoiceNo, date string) {
	invoiceNo = strings.TrimSpace(group(invoiceNoPattern, text, "inv"))
	date = strings.TrimSpace(group(invoiceDatePattern, text, "date"))
	return invoiceNo, date
}

// DocumentPO finds the document-level purchase order reference. The result
// is already "PO-" prefixed, or empty when the document carries none; line
// items without a per-item PO fall back to it.
func DocumentPO(text string) string {
	if po := group(documentPOPattern, text, "po"); po != "" {
		return "PO-" + po
	}
	return ""
}
