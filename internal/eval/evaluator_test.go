package eval

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invex/pkg/models"
)

func vatPtr(v float64) *float64 { return &v }

func sampleRecord() *models.InvoiceRecord {
	return &models.InvoiceRecord{
		Supplier:  models.Supplier{Name: "NORTHSIDE TECH LTD", VAT: "GB123456789"},
		InvoiceNo: "INV-2024-0042",
		Date:      "15/03/2024",
		Items: []models.LineItem{
			{Description: "Widget", Qty: 2, UnitPrice: 10.0, LineTotal: 20.0, PONumber: "PO-123456"},
			{Description: "Gadget", Qty: 1, UnitPrice: 30.0, LineTotal: 30.0, PONumber: "PO-123456"},
		},
		Totals: models.Totals{Subtotal: 50.0, VAT: vatPtr(10.0), Total: 60.0},
	}
}

func TestCompareIdenticalRecords(t *testing.T) {
	gt := sampleRecord()
	pred := sampleRecord()

	m := Compare(gt, pred, DefaultTolerance)

	assert.Equal(t, 1, m.POMatch)
	assert.Equal(t, 2, m.LineItemsCorrect)
	assert.Equal(t, 2, m.LineItemsTotal)
	assert.Equal(t, 1.0, m.LineItemAccuracy)
	assert.Equal(t, 1, m.TotalsMatch)
}

func TestCompareToleranceBoundary(t *testing.T) {
	gt := sampleRecord()

	within := sampleRecord()
	within.Items[0].UnitPrice = 10.01
	m := Compare(gt, within, DefaultTolerance)
	assert.Equal(t, 2, m.LineItemsCorrect, "difference of exactly 0.01 is within tolerance")

	beyond := sampleRecord()
	beyond.Items[0].UnitPrice = 10.02
	m = Compare(gt, beyond, DefaultTolerance)
	assert.Equal(t, 1, m.LineItemsCorrect, "difference of 0.02 is outside tolerance")
}

func TestCompareQtyMustBeExact(t *testing.T) {
	gt := sampleRecord()
	pred := sampleRecord()
	pred.Items[1].Qty = 2

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 1, m.LineItemsCorrect)
}

func TestComparePOSetMismatch(t *testing.T) {
	gt := sampleRecord()
	pred := sampleRecord()
	pred.Items[1].PONumber = "PO-999999"

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 0, m.POMatch)
	assert.Equal(t, "PO-123456", m.POGroundTruth)
	assert.Equal(t, "PO-123456,PO-999999", m.POPrediction)
}

func TestComparePOOrderIrrelevant(t *testing.T) {
	gt := sampleRecord()
	gt.Items[0].PONumber = "PO-111111"
	pred := sampleRecord()
	pred.Items[0].PONumber = "PO-123456"
	pred.Items[1].PONumber = "PO-111111"

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 1, m.POMatch)
}

func TestCompareMissingPredictedItems(t *testing.T) {
	gt := sampleRecord()
	pred := sampleRecord()
	pred.Items = pred.Items[:1]

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 1, m.LineItemsCorrect)
	assert.Equal(t, 2, m.LineItemsTotal)
	assert.Equal(t, 0.5, m.LineItemAccuracy)
}

func TestCompareVATSkippedWhenAbsentFromGroundTruth(t *testing.T) {
	gt := sampleRecord()
	gt.Totals.VAT = nil
	pred := sampleRecord()
	pred.Totals.VAT = vatPtr(99.0)

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 1, m.TotalsMatch, "VAT only scored when ground truth carries it")
}

func TestCompareVATScoredWhenPresent(t *testing.T) {
	gt := sampleRecord()
	pred := sampleRecord()
	pred.Totals.VAT = vatPtr(11.0)

	m := Compare(gt, pred, DefaultTolerance)
	assert.Equal(t, 0, m.TotalsMatch)
}

func writeRecord(t *testing.T, path string, record *models.InvoiceRecord) {
	t.Helper()
	data, err := json.MarshalIndent(record, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestEvaluateAndReport(t *testing.T) {
	gtDir := t.TempDir()
	predDir := t.TempDir()
	outDir := t.TempDir()

	writeRecord(t, filepath.Join(gtDir, "inv_001.json"), sampleRecord())
	writeRecord(t, filepath.Join(predDir, "inv_001", "invoice.json"), sampleRecord())

	off := sampleRecord()
	writeRecord(t, filepath.Join(gtDir, "inv_002.json"), off)
	wrong := sampleRecord()
	wrong.Items[0].PONumber = "PO-777777"
	wrong.Totals.Total = 70.0
	writeRecord(t, filepath.Join(predDir, "inv_002", "invoice.json"), wrong)

	e := NewEvaluator(gtDir, predDir, outDir, DefaultTolerance)
	require.NoError(t, e.Evaluate())
	require.Len(t, e.Results(), 2)

	summary, err := e.Report()
	require.NoError(t, err)
	assert.Equal(t, 50.0, summary.POAccuracy)
	assert.Equal(t, 100.0, summary.LineItemAccuracy)
	assert.Equal(t, 50.0, summary.TotalsAccuracy)
	assert.Equal(t, 2, summary.NumInvoices)

	for _, name := range []string{"summary.json", "details.json", "details.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "summary.json"))
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "PO Accuracy (%)")
	assert.Contains(t, raw, "Line-item Accuracy (%)")
	assert.Contains(t, raw, "Total-fields Accuracy (%)")
	assert.Contains(t, raw, "Num invoices")
}

func TestEvaluateSkipsMissingPrediction(t *testing.T) {
	gtDir := t.TempDir()
	predDir := t.TempDir()

	writeRecord(t, filepath.Join(gtDir, "inv_001.json"), sampleRecord())
	writeRecord(t, filepath.Join(gtDir, "inv_002.json"), sampleRecord())
	writeRecord(t, filepath.Join(predDir, "inv_002", "invoice.json"), sampleRecord())

	e := NewEvaluator(gtDir, predDir, "", DefaultTolerance)
	require.NoError(t, e.Evaluate())
	require.Len(t, e.Results(), 1)
	assert.Equal(t, "inv_002", e.Results()[0].File)
}
