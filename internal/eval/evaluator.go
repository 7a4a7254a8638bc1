// Package eval scores extraction runs against ground-truth invoices and
// writes summary and per-invoice report files.
package eval

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"invex/internal/logger"
	"invex/pkg/models"
)

// DefaultTolerance is the inclusive numeric tolerance for float comparison.
const DefaultTolerance = 0.01

// DocumentMetrics holds the comparison result for one invoice.
type DocumentMetrics struct {
	File             string  `json:"file"`
	POMatch          int     `json:"po_match"`
	POGroundTruth    string  `json:"po_gt"`
	POPrediction     string  `json:"po_pred"`
	LineItemsCorrect int     `json:"line_items_correct"`
	LineItemsTotal   int     `json:"line_items_total"`
	LineItemAccuracy float64 `json:"line_item_accuracy"`
	TotalsMatch      int     `json:"totals_match"`
	SubtotalGT       float64 `json:"subtotal_gt"`
	SubtotalPred     float64 `json:"subtotal_pred"`
	VATGT            float64 `json:"vat_gt"`
	VATPred          float64 `json:"vat_pred"`
	TotalGT          float64 `json:"total_gt"`
	TotalPred        float64 `json:"total_pred"`
}

// Summary holds the aggregate accuracies over an evaluation run. Keys in
// the serialized form match the report consumers.
type Summary struct {
	POAccuracy       float64 `json:"PO Accuracy (%)"`
	LineItemAccuracy float64 `json:"Line-item Accuracy (%)"`
	TotalsAccuracy   float64 `json:"Total-fields Accuracy (%)"`
	NumInvoices      int     `json:"Num invoices"`
}

// Evaluator compares prediction JSONs against ground truths and produces
// on-disk reports.
type Evaluator struct {
	gtDir   string
	predDir string
	outDir  string
	tol     float64
	results []DocumentMetrics
	log     zerolog.Logger
}

// NewEvaluator creates an evaluator. An empty outDir defaults to
// <predictions>/evaluation.
func NewEvaluator(gtDir, predDir, outDir string, tol float64) *Evaluator {
	if outDir == "" {
		outDir = filepath.Join(predDir, "evaluation")
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Evaluator{
		gtDir:   gtDir,
		predDir: predDir,
		outDir:  outDir,
		tol:     tol,
		log:     logger.WithComponent("evaluator"),
	}
}

// valuesClose reports whether two floats agree within the tolerance,
// boundary included.
func valuesClose(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// Compare scores one prediction against its ground truth.
func Compare(gt, pred *models.InvoiceRecord, tol float64) DocumentMetrics {
	gtPO := poSet(gt.Items)
	predPO := poSet(pred.Items)

	var m DocumentMetrics
	if setsEqual(gtPO, predPO) {
		m.POMatch = 1
	}
	m.POGroundTruth = joinSet(gtPO)
	m.POPrediction = joinSet(predPO)

	m.LineItemsTotal = len(gt.Items)
	for i, gtItem := range gt.Items {
		if i >= len(pred.Items) {
			break
		}
		predItem := pred.Items[i]
		qtyOK := gtItem.Qty == predItem.Qty
		priceOK := valuesClose(gtItem.UnitPrice, predItem.UnitPrice, tol)
		totalOK := valuesClose(gtItem.LineTotal, predItem.LineTotal, tol)
		if qtyOK && priceOK && totalOK {
			m.LineItemsCorrect++
		}
	}
	if m.LineItemsTotal > 0 {
		m.LineItemAccuracy = float64(m.LineItemsCorrect) / float64(m.LineItemsTotal)
	}

	m.SubtotalGT = gt.Totals.Subtotal
	m.SubtotalPred = pred.Totals.Subtotal
	m.TotalGT = gt.Totals.Total
	m.TotalPred = pred.Totals.Total
	if gt.Totals.VAT != nil {
		m.VATGT = *gt.Totals.VAT
	}
	if pred.Totals.VAT != nil {
		m.VATPred = *pred.Totals.VAT
	}

	// VAT is only scored when the ground truth carries it.
	totalsOK := valuesClose(m.SubtotalGT, m.SubtotalPred, tol) &&
		valuesClose(m.TotalGT, m.TotalPred, tol)
	if totalsOK && gt.Totals.VAT != nil {
		totalsOK = valuesClose(m.VATGT, m.VATPred, tol)
	}
	if totalsOK {
		m.TotalsMatch = 1
	}

	return m
}

// Evaluate compares every ground-truth JSON in the ground-truth directory
// against <predictions>/<name>/invoice.json.
func (e *Evaluator) Evaluate() error {
	const op = "Evaluate"
	e.results = e.results[:0]

	gtPaths, err := filepath.Glob(filepath.Join(e.gtDir, "*.json"))
	if err != nil {
		return fmt.Errorf("%s: failed to list ground truths: %w", op, err)
	}
	sort.Strings(gtPaths)

	for _, gtPath := range gtPaths {
		name := strings.TrimSuffix(filepath.Base(gtPath), ".json")
		predPath := filepath.Join(e.predDir, name, "invoice.json")

		gt, err := loadRecord(gtPath)
		if err != nil {
			return fmt.Errorf("%s: failed to read ground truth %s: %w", op, name, err)
		}
		pred, err := loadRecord(predPath)
		if err != nil {
			if os.IsNotExist(err) {
				e.log.Warn().Str("invoice", name).Msg("Missing prediction, skipping")
				continue
			}
			return fmt.Errorf("%s: failed to read prediction %s: %w", op, name, err)
		}

		metrics := Compare(gt, pred, e.tol)
		metrics.File = name
		e.results = append(e.results, metrics)
	}

	e.log.Info().Int("invoices", len(e.results)).Msg("Evaluation completed")
	return nil
}

// Results returns the per-invoice metrics from the last Evaluate call.
func (e *Evaluator) Results() []DocumentMetrics {
	return e.results
}

// Summarize aggregates the per-invoice metrics. Percentages are rounded to
// two decimals.
func (e *Evaluator) Summarize() Summary {
	n := len(e.results)
	if n == 0 {
		return Summary{}
	}

	var poSum, totalsSum, itemsCorrect, itemsTotal int
	for _, m := range e.results {
		poSum += m.POMatch
		totalsSum += m.TotalsMatch
		itemsCorrect += m.LineItemsCorrect
		itemsTotal += m.LineItemsTotal
	}

	var lineItemAcc float64
	if itemsTotal > 0 {
		lineItemAcc = float64(itemsCorrect) / float64(itemsTotal) * 100
	}

	return Summary{
		POAccuracy:       round2(float64(poSum) / float64(n) * 100),
		LineItemAccuracy: round2(lineItemAcc),
		TotalsAccuracy:   round2(float64(totalsSum) / float64(n) * 100),
		NumInvoices:      n,
	}
}

func poSet(items []models.LineItem) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range items {
		set[item.PONumber] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func joinSet(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func loadRecord(path string) (*models.InvoiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record models.InvoiceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return &record, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
