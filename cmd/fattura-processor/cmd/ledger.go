package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/logger"
)

var csvDelimiter string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the cash and bank registers",
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export <closure-id>",
	Short: "Export the journal entries of a closure as CSV",
	Long: `Export the journal entries of a closure as CSV, one row per entry
with amounts fixed to two decimals.

Examples:
  fattura-processor ledger export 2024-03-15-bar -o entries.csv
  fattura-processor ledger export 2024-03-15-bar --delimiter ';'`,
	Args: cobra.ExactArgs(1),
	RunE: runLedgerExport,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)

	ledgerExportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	ledgerExportCmd.Flags().StringVar(&csvDelimiter, "delimiter", ",", "Field delimiter")
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	delim, size := utf8.DecodeRuneInString(csvDelimiter)
	if size == 0 || size != len(csvDelimiter) {
		return fmt.Errorf("delimiter must be a single character: %q", csvDelimiter)
	}

	store, closeStore, err := openPersistentStore("ledger export")
	if err != nil {
		return err
	}
	defer closeStore()

	poster := closure.NewPoster(store, closure.WithLogger(logger.WithComponent("closure")))
	entries, err := poster.Entries(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printVerbose("Exporting %d entries\n", len(entries))

	w, closeOutput, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	return closure.WriteCSV(w, entries, delim)
}
