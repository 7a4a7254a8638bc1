package extract

import (
	"strings"

	"invex/pkg/models"
)

// ExtractTotals recovers the footer amounts from the whole document text.
// Subtotal and total default to 0.0 when not found; VAT stays nil when no
// VAT line is present so that callers can tell "no VAT on document" apart
// from "VAT of zero".
func ExtractTotals(text string) models.Totals {
	text = strings.ReplaceAll(text, "Am0unt", "Amount")

	totals := models.Totals{}
	if m := group(subtotalPattern, text, "sub"); m != "" {
		totals.Subtotal = NormalizeDecimal(m)
	}
	if m := group(vatAmountPattern, text, "vat"); m != "" {
		vat := NormalizeDecimal(m)
		totals.VAT = &vat
	}
	if m := group(totalPattern, text, "tot"); m != "" {
		totals.Total = NormalizeDecimal(m)
	}
	return totals
}
