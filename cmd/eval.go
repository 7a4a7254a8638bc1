package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invex/internal/eval"
	"invex/internal/logger"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score extraction predictions against ground-truth invoices",
	Long: `Compare prediction JSONs against ground-truth JSON files and produce
accuracy reports.

Ground truths are flat JSON files (<name>.json); predictions follow the
extract command's output layout (<predictions>/<name>/invoice.json).
Three metrics are reported: purchase-order set accuracy, line-item
accuracy (quantity exact, prices within tolerance) and total-fields
accuracy. VAT is only scored when the ground truth carries it.

The report directory receives summary.json, details.json and
details.csv.`,
	Example: `  # Evaluate a regex extraction run
  invex eval --ground-truths ground_truths --predictions outputs/regex

  # Custom report directory and tolerance
  invex eval --ground-truths gt --predictions outputs/llm \
    --out-dir reports/llm_eval --tol 0.05`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().String("ground-truths", "", "Directory with ground-truth JSON files (required)")
	evalCmd.Flags().String("predictions", "", "Directory with predictions, one sub-folder per PDF (required)")
	evalCmd.Flags().String("out-dir", "", "Report directory (default: <predictions>/evaluation)")
	evalCmd.Flags().Float64("tol", eval.DefaultTolerance, "Numeric tolerance when comparing floats")

	evalCmd.MarkFlagRequired("ground-truths")
	evalCmd.MarkFlagRequired("predictions")
}

func runEval(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("eval")

	gtDir, _ := cmd.Flags().GetString("ground-truths")
	predDir, _ := cmd.Flags().GetString("predictions")
	outDir, _ := cmd.Flags().GetString("out-dir")
	tol, _ := cmd.Flags().GetFloat64("tol")

	if info, err := os.Stat(gtDir); err != nil || !info.IsDir() {
		return fmt.Errorf("ground-truth directory not found: %s", gtDir)
	}
	if info, err := os.Stat(predDir); err != nil || !info.IsDir() {
		return fmt.Errorf("prediction directory not found: %s", predDir)
	}

	log.Info().
		Str("ground_truths", gtDir).
		Str("predictions", predDir).
		Float64("tol", tol).
		Msg("Starting evaluation")

	evaluator := eval.NewEvaluator(gtDir, predDir, outDir, tol)
	if err := evaluator.Evaluate(); err != nil {
		log.Error().Err(err).Msg("Evaluation failed")
		return err
	}

	summary, err := evaluator.Report()
	if err != nil {
		log.Error().Err(err).Msg("Failed to write evaluation report")
		return err
	}

	if summary.NumInvoices == 0 {
		fmt.Println("No invoices evaluated. Check the ground-truth and prediction directories.")
		return nil
	}

	fmt.Println("\n=== Evaluation Summary ===")
	fmt.Printf("%-28s %6.2f%%\n", "PO Accuracy", summary.POAccuracy)
	fmt.Printf("%-28s %6.2f%%\n", "Line-item Accuracy", summary.LineItemAccuracy)
	fmt.Printf("%-28s %6.2f%%\n", "Total-fields Accuracy", summary.TotalsAccuracy)
	fmt.Printf("%-28s %6d\n", "Num invoices", summary.NumInvoices)

	return nil
}
