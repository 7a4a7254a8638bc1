package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invex/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invex",
	Short: "Invex - structured invoice extraction from scanned PDFs",
	Long: `Invex extracts structured data (supplier, line items, totals) from
scanned PDF invoices.

Three extraction methods are available: deterministic pattern matching
over OCR text, an LLM-based extractor, and a layout-model extractor.
Predictions can be scored against ground-truth JSON files with the
eval command.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invex executed")

		fmt.Println("Welcome to Invex!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
