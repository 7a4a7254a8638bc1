// Package extract recovers structured invoice data from noisy OCR text.
//
// The extractors in this package are pure functions over text: they hold no
// state beyond the process-wide pattern table below, never perform I/O, and
// never fail. A field that cannot be located in the text yields its zero
// value (empty string, 0, 0.0) rather than an error; for noisy scans a
// missing match is an expected outcome, not a failure condition.
//
// The pattern table is compiled once at init and is safe for unlimited
// concurrent readers.
package extract

import "regexp"

// Field patterns recognized in OCR output. All are case-insensitive and
// each downstream extractor uses only the first match in scanning order.
//
// The price and line-total character classes admit "l" and "I" so that
// digit misreads survive into capture and are repaired by NormalizeDecimal.
// The line-total and total patterns additionally tolerate the frequent
// "Am0unt" misread of "Amount".
var (
	supplierNamePattern = regexp.MustCompile(`(?i)^\s*(?P<supplier>[A-Z0-9 &\-.,]{5,})\s*$`)
	vatNumberPattern    = regexp.MustCompile(`(?i)\bVAT[:\s]*([A-Z]{2}\d{8,12})\b`)
	invoiceNoPattern    = regexp.MustCompile(`(?i)\bInvoice\s*Number[:\s]*(?P<inv>[A-Z0-9\-_]+)\b`)
	invoiceDatePattern  = regexp.MustCompile(`(?i)\b(?:Invoice\s*Date|Date)[:\s]*(?P<date>\d{2}[/\-]\d{2}[/\-]\d{4})\b`)
	poNumberPattern     = regexp.MustCompile(`(?i)\bPO[-\s]*:?\s*(?P<po>\d{4,10})\b`)
	productCodePattern  = regexp.MustCompile(`(?i)Product\s*Code[:\s]*(?P<code>PRD[-A-Z0-9]+)`)
	quantityPattern     = regexp.MustCompile(`(?i)\b(?:Quantity|Qty)[:\s]*(?P<qty>\d+)\b`)
	pricePattern        = regexp.MustCompile(`(?i)\b(?:Unit\s*Price|Price)[:;：]?\s*\$?(?P<pr>[0-9lI.,]+)`)
	lineTotalPattern    = regexp.MustCompile(`(?i)\b(?:Am[o0]unt|Total)[:;：\s]*\$?(?P<lt>[0-9lI.,]+)\b`)
	subtotalPattern     = regexp.MustCompile(`(?i)\bSubtotal[:\s]*\$?(?P<sub>[0-9.,]+)\b`)
	vatAmountPattern    = regexp.MustCompile(`(?i)\bVAT\s*\(?\d{1,2}%\)?[:\s]*\$?(?P<vat>[0-9.,]+)\b`)
	totalPattern        = regexp.MustCompile(`(?i)\bTotal\s*(?:A[mn][0o]unt|Amt)?[:：]?\s*\$?(?P<tot>[0-9.,]+)\b`)
)

// Line-item layout patterns used by the three detectors.
var (
	// Style 1: unnumbered "Hours: N x Rate: $R" service lines.
	hoursRatePattern = regexp.MustCompile(`(?i)Hours[:\s]*(?P<hours>\d+)\s*x\s*Rate[:\s]*\$?(?P<rate>[0-9.,]+)`)

	// Style 2: numbered item blocks ("3. Widget", "9.Circuit Boards").
	numberedLinePattern = regexp.MustCompile(`^\d+\.\s*`)

	// Style 3: a line consisting solely of a product code starts a new item.
	prdLinePattern = regexp.MustCompile(`(?i)^PRD[-A-Z0-9]+$`)

	// A bare "PO:" label with the number wrapped onto the following line.
	poLabelPattern     = regexp.MustCompile(`(?i)^PO[:：]\s*(?:PO-?)?$`)
	poFullLinePattern  = regexp.MustCompile(`(?i)^PO-?(\d{4,10})$`)
	poDigitLinePattern = regexp.MustCompile(`^(\d{4,10})$`)

	// Document-level purchase order reference in the header or footer.
	documentPOPattern = regexp.MustCompile(`(?i)\bPONUMBER[:\s]*PO[-\s]*(?P<po>\d{4,10})\b`)
)

// group returns the named capture of the first match of re in s,
// or "" when the pattern does not match.
func group(re *regexp.Regexp, s, name string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	for i, n := range re.SubexpNames() {
		if n == name {
			return m[i]
		}
	}
	return ""
}
