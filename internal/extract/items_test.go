package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invex/pkg/models"
)

func TestHoursRateItem(t *testing.T) {
	text := "Consulting\nHours: 10 x Rate: $25.00\nAmount: $250.00\n"

	items := ExtractLineItems(text, "PO-777777")
	require.Len(t, items, 1)

	assert.Equal(t, models.LineItem{
		Description: "Consulting",
		Qty:         10,
		UnitPrice:   25.0,
		LineTotal:   250.0,
		PONumber:    "PO-777777",
	}, items[0])
}

func TestHoursRateSkipsHeaderLabel(t *testing.T) {
	// A table-header label between the description and the hours line is
	// not the description; the line above it is.
	text := "Senior Engineering\nDESCRIPTION\nHours: 8 x Rate: $100.00\nAmount: $800.00\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "Senior Engineering", items[0].Description)
}

func TestHoursRateTotalSearchWindow(t *testing.T) {
	// The line total must appear within two lines after the hours line.
	text := "Advisory\nHours: 3 x Rate: $50.00\nfiller one\nfiller two\nAmount: $150.00\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Zero(t, items[0].LineTotal)
}

func TestHoursRateRepairsTypos(t *testing.T) {
	text := "Support\nH0urs: 5 × Rate: $20.00/hr\nAm0unt: $100.00\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
	assert.InDelta(t, 20.0, items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 100.0, items[0].LineTotal, 1e-9)
}

func TestNumberedBlockItem(t *testing.T) {
	text := "3. Widget\nProduct Code: PRD-001\nQty: 5\nUnit Price: $10.00\nAmount: $50.00\nPO: PO-123456\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)

	assert.Equal(t, models.LineItem{
		Description: "Widget",
		ProductCode: "PRD-001",
		Qty:         5,
		UnitPrice:   10.0,
		LineTotal:   50.0,
		PONumber:    "PO-123456",
	}, items[0])
}

func TestNumberedBlockWithoutSpaceAfterDot(t *testing.T) {
	text := "9.Circuit Boards\nProduct Code: PRD-009\nQty: 2\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "Circuit Boards", items[0].Description)
	assert.Equal(t, "PRD-009", items[0].ProductCode)
}

func TestNumberedBlockFilterRejectsNotes(t *testing.T) {
	// Numbered lines with neither a product code nor a line total are
	// terms/notes, not item rows.
	text := "1. Payment due within 30 days\n2. Goods remain our property until paid\n"

	assert.Empty(t, ExtractLineItems(text, ""))
}

func TestNumberedBlockFallsBackToDocumentPO(t *testing.T) {
	text := "1. Gasket Set\nProduct Code: PRD-014\nQty: 4\n"

	items := ExtractLineItems(text, "PO-424242")
	require.Len(t, items, 1)
	assert.Equal(t, "PO-424242", items[0].PONumber)
}

func TestProductCodeBlockItem(t *testing.T) {
	text := "ITEM DETAILS:\nPRD-2024-A\nSteel Brackets\nQty: 10\nUnit Price: $15.50\nAmount: $155.00\nPO: 555555\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)

	assert.Equal(t, models.LineItem{
		Description: "Steel Brackets",
		ProductCode: "PRD-2024-A",
		Qty:         10,
		UnitPrice:   15.5,
		LineTotal:   155.0,
		PONumber:    "PO-555555",
	}, items[0])
}

func TestProductCodeBlockStopsAtSubtotal(t *testing.T) {
	// Everything after the subtotal line is footer: a later code line must
	// not open a new item.
	text := "PRD-100\nWidget A\nQty: 1\nSubtotal: $10.00\nPRD-999\nGhost item\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "PRD-100", items[0].ProductCode)
}

func TestProductCodeBlockWrappedPO(t *testing.T) {
	// The PO number may wrap onto the line after a bare "PO:" label.
	text := "PRD-200\nHex Bolts\nPO:\nPO-123456\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "PO-123456", items[0].PONumber)

	text = "PRD-201\nHex Nuts\nPO:\n654321\n"
	items = ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "PO-654321", items[0].PONumber)
}

func TestProductCodeBlockMultipleItems(t *testing.T) {
	text := "PRD-A1\nFirst\nQty: 1\nPRD-B2\nSecond\nQty: 2\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 2)
	assert.Equal(t, "PRD-A1", items[0].ProductCode)
	assert.Equal(t, 1, items[0].Qty)
	assert.Equal(t, "PRD-B2", items[1].ProductCode)
	assert.Equal(t, 2, items[1].Qty)
}

func TestLinesBeforeFirstCodeAreIgnored(t *testing.T) {
	text := "random preamble\nmore preamble\nPRD-1\nThing\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 1)
	assert.Equal(t, "Thing", items[0].Description)
}

func TestStylesConcatenateWithoutDeduplication(t *testing.T) {
	// All three detectors run over the same text and their outputs append
	// in fixed order; nothing is deduplicated across styles.
	text := "Consulting\nHours: 2 x Rate: $30.00\nAmount: $60.00\n" +
		"1. Widget\nProduct Code: PRD-001\nQty: 5\n" +
		"PRD-XYZ\nBracket\nQty: 3\n"

	items := ExtractLineItems(text, "")
	require.Len(t, items, 3)
	assert.Equal(t, "Consulting", items[0].Description) // style 1
	assert.Equal(t, "PRD-001", items[1].ProductCode)    // style 2
	assert.Equal(t, "PRD-XYZ", items[2].ProductCode)    // style 3
}
