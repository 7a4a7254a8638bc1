package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSupplier(t *testing.T) {
	page := "ACME SOLUTIONS LTD\nVAT: GB123456789\n123 Industrial Way\n"

	s := ExtractSupplier(page)
	assert.Equal(t, "ACME SOLUTIONS LTD", s.Name)
	assert.Equal(t, "GB123456789", s.VAT)
}

func TestExtractSupplierRequiresKeyword(t *testing.T) {
	// Uppercase header lines without a company keyword are not suppliers.
	s := ExtractSupplier("123 INDUSTRIAL WAY\nLONDON, UK\n")
	assert.Empty(t, s.Name)
}

func TestExtractSupplierScansOnlyHeaderLines(t *testing.T) {
	// The supplier scan is bounded to the first ten non-empty lines.
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("some lowercase filler line\n")
	}
	b.WriteString("ACME SOLUTIONS LTD\n")

	s := ExtractSupplier(b.String())
	assert.Empty(t, s.Name)
}

func TestExtractSupplierMissingFields(t *testing.T) {
	s := ExtractSupplier("")
	assert.Empty(t, s.Name)
	assert.Empty(t, s.VAT)
}

func TestExtractHeader(t *testing.T) {
	text := "Invoice Number: INV-2024-001\nInvoice Date: 15/03/2024\n"

	invoiceNo, date := ExtractHeader(text)
	assert.Equal(t, "INV-2024-001", invoiceNo)
	assert.Equal(t, "15/03/2024", date)
}

func TestExtractHeaderAbsentFields(t *testing.T) {
	invoiceNo, date := ExtractHeader("nothing interesting here")
	assert.Empty(t, invoiceNo)
	assert.Empty(t, date)
}

func TestDocumentPO(t *testing.T) {
	assert.Equal(t, "PO-123456", DocumentPO("PONUMBER: PO-123456"))
	assert.Equal(t, "PO-98765", DocumentPO("PONUMBER PO 98765"))
	assert.Empty(t, DocumentPO("PO: 123456")) // not the document-level form
}

func TestExtractTotals(t *testing.T) {
	text := "Subtotal: $1,000.00\nVAT (20%): $200.00\nTotal Amount: $1,200.00\n"

	totals := ExtractTotals(text)
	assert.InDelta(t, 1000.00, totals.Subtotal, 1e-9)
	if assert.NotNil(t, totals.VAT) {
		assert.InDelta(t, 200.00, *totals.VAT, 1e-9)
	}
	assert.InDelta(t, 1200.00, totals.Total, 1e-9)
}

func TestExtractTotalsVATOmittedWhenAbsent(t *testing.T) {
	totals := ExtractTotals("Subtotal: $50.00\nTotal: $50.00\n")
	assert.Nil(t, totals.VAT)
	assert.InDelta(t, 50.00, totals.Subtotal, 1e-9)
	assert.InDelta(t, 50.00, totals.Total, 1e-9)
}

func TestExtractTotalsRepairsAmountTypo(t *testing.T) {
	totals := ExtractTotals("Subtotal: $10.00\nTotal Am0unt: $12.00\n")
	assert.InDelta(t, 12.00, totals.Total, 1e-9)
}

func TestExtractTotalsDefaults(t *testing.T) {
	totals := ExtractTotals("no amounts at all")
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.Total)
	assert.Nil(t, totals.VAT)
}
