package eval

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// csvColumns fixes the column order of details.csv.
var csvColumns = []string{
	"file",
	"po_match",
	"po_gt",
	"po_pred",
	"line_items_correct",
	"line_items_total",
	"line_item_accuracy",
	"totals_match",
	"subtotal_gt",
	"subtotal_pred",
	"vat_gt",
	"vat_pred",
	"total_gt",
	"total_pred",
}

// Report aggregates the results, writes summary.json, details.json and
// details.csv to the output directory, and returns the summary.
func (e *Evaluator) Report() (Summary, error) {
	const op = "Report"

	summary := e.Summarize()
	if len(e.results) == 0 {
		e.log.Warn().Msg("No evaluation results to report")
		return summary, nil
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return summary, fmt.Errorf("%s: failed to create output directory: %w", op, err)
	}

	if err := writeJSON(filepath.Join(e.outDir, "summary.json"), summary); err != nil {
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	if err := writeJSON(filepath.Join(e.outDir, "details.json"), e.results); err != nil {
		return summary, fmt.Errorf("%s: %w", op, err)
	}
	if err := e.writeDetailsCSV(filepath.Join(e.outDir, "details.csv")); err != nil {
		return summary, fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info().Str("out_dir", e.outDir).Msg("Saved evaluation report")
	return summary, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (e *Evaluator) writeDetailsCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return err
	}
	for _, m := range e.results {
		row := []string{
			m.File,
			strconv.Itoa(m.POMatch),
			m.POGroundTruth,
			m.POPrediction,
			strconv.Itoa(m.LineItemsCorrect),
			strconv.Itoa(m.LineItemsTotal),
			formatFloat(m.LineItemAccuracy),
			strconv.Itoa(m.TotalsMatch),
			formatFloat(m.SubtotalGT),
			formatFloat(m.SubtotalPred),
			formatFloat(m.VATGT),
			formatFloat(m.VATPred),
			formatFloat(m.TotalGT),
			formatFloat(m.TotalPred),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
