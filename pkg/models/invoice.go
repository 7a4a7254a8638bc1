package models

// Supplier identifies the invoicing party.
type Supplier struct {
	Name string `json:"name"` // Supplier company name from the document header
	VAT  string `json:"vat"`  // VAT registration number (country code + digits)
}

// LineItem is a single billed position on an invoice.
//
// Quantities and amounts are never negative: failed numeric parses and
// unmatched fields yield their zero values rather than errors.
type LineItem struct {
	Description string  `json:"description"`
	ProductCode string  `json:"product_code"`
	Qty         int     `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`

	// PONumber is normalized to the form "PO-<digits>". When no per-item
	// purchase order is detected it carries the document-level fallback,
	// which may be empty.
	PONumber string `json:"po_number"`
}

// Totals holds the invoice footer amounts. VAT is a pointer so that
// "VAT not present on the document" is distinguishable from "VAT is zero";
// downstream comparison depends on that distinction.
type Totals struct {
	Subtotal float64  `json:"subtotal"`
	VAT      *float64 `json:"vat,omitempty"`
	Total    float64  `json:"total"`
}

// InvoiceRecord is the assembled extraction result for one document.
// It is immutable after assembly and serializes to the canonical JSON
// layout shared by all extraction methods and the evaluator.
type InvoiceRecord struct {
	Supplier  Supplier   `json:"supplier"`
	InvoiceNo string     `json:"invoice_no"`
	Date      string     `json:"date"`
	Items     []LineItem `json:"items"`
	Totals    Totals     `json:"totals"`
}

// PageLine is one recognized OCR line with its confidence and bounding box.
// It exists only during OCR consumption and optional debug output; the
// extraction core itself works on plain text.
type PageLine struct {
	Page  int     `json:"page"`  // 1-based page index
	Text  string  `json:"text"`  // recognized line text
	Score float64 `json:"score"` // recognition confidence, 0.0-1.0
	Box   [4]int  `json:"box"`   // x, y, width, height in page pixels
}
