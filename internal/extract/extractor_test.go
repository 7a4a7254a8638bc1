package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAssemblesRecord(t *testing.T) {
	page1 := "NORTHSIDE TECH LTD\n" +
		"VAT: GB123456789\n" +
		"Invoice Number: INV-2024-0042\n" +
		"Invoice Date: 15/03/2024\n" +
		"PONUMBER: PO-998877\n" +
		"1. Widget\n" +
		"Product Code: PRD-001\n" +
		"Qty: 5\n" +
		"Unit Price: $10.00\n" +
		"Amount: $50.00\n"
	page2 := "Subtotal: $50.00\n" +
		"VAT (20%): $10.00\n" +
		"Total Amount: $60.00\n"

	rec := Extract([]string{page1, page2})

	assert.Equal(t, "NORTHSIDE TECH LTD", rec.Supplier.Name)
	assert.Equal(t, "GB123456789", rec.Supplier.VAT)
	assert.Equal(t, "INV-2024-0042", rec.InvoiceNo)
	assert.Equal(t, "15/03/2024", rec.Date)

	require.Len(t, rec.Items, 1)
	assert.Equal(t, "PRD-001", rec.Items[0].ProductCode)
	// No per-item PO in the block: the document-level PO applies.
	assert.Equal(t, "PO-998877", rec.Items[0].PONumber)

	assert.InDelta(t, 50.0, rec.Totals.Subtotal, 1e-9)
	require.NotNil(t, rec.Totals.VAT)
	assert.InDelta(t, 10.0, *rec.Totals.VAT, 1e-9)
	assert.InDelta(t, 60.0, rec.Totals.Total, 1e-9)
}

func TestExtractEmptyDocument(t *testing.T) {
	rec := Extract(nil)

	assert.Empty(t, rec.Supplier.Name)
	assert.Empty(t, rec.InvoiceNo)
	assert.Empty(t, rec.Items)
	assert.Zero(t, rec.Totals.Subtotal)
	assert.Nil(t, rec.Totals.VAT)
}
