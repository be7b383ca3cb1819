package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/config"
	"github.com/rezonia/fattura-processor/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configFile   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fattura-processor",
	Short: "Import Italian e-invoices and post daily cash closures",
	Long: `Fattura Processor reads FatturaPA electronic invoices and keeps the
cash and bank registers of a venue.

Supports:
  - FatturaPA XML, ordinary and simplified, any namespace prefix
  - Supplier matching by VAT number or fiscal code
  - Daily closure totals and ledger posting with reversal

Examples:
  # Parse an invoice
  fattura-processor parse IT01234567890_FPR12.xml

  # Validate a folder of invoices
  fattura-processor validate invoices/ -f table

  # Import invoices and register unknown suppliers
  fattura-processor import invoices/*.xml --auto-create

  # Post a daily closure
  fattura-processor closure post closure.yaml --actor user-7`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml or $HOME/.fattura-processor/config.yaml)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logCfg := cfg.LogConfig()
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logger.Setup(logCfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	switch outputFormat {
	case "json", "table":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
