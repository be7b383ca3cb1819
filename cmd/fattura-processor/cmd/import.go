package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/processor"
	"github.com/rezonia/fattura-processor/internal/supplier"
)

var (
	autoCreate        bool
	defaultAccountRef string
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import invoices and match their suppliers",
	Long: `Parse invoices and match each supplier against the registry by VAT
number, then by fiscal code. With --auto-create unmatched suppliers are
registered from the invoice data.

Examples:
  fattura-processor import invoices/ --config config.yaml
  fattura-processor import *.xml --auto-create --account-ref 4010 -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().DurationVar(&timeout, "timeout", defaultBatchTimeout, "Timeout for the whole batch")
	importCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Documents imported at once")
	importCmd.Flags().BoolVar(&autoCreate, "auto-create", false, "Register unmatched suppliers (default from config)")
	importCmd.Flags().StringVar(&defaultAccountRef, "account-ref", "", "Default account reference of created suppliers")
}

func runImport(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	log := logger.WithComponent("processor")
	opts := []processor.Option{
		processor.WithConcurrency(concurrency),
		processor.WithLogger(log),
		processor.WithSupplierMatcher(supplier.NewMatcher(store, supplier.WithLogger(log))),
	}

	create := cfg.Supplier.AutoCreate
	if cmd.Flags().Changed("auto-create") {
		create = autoCreate
	}
	if create {
		accountRef := cfg.Supplier.DefaultAccountRef
		if defaultAccountRef != "" {
			accountRef = defaultAccountRef
		}
		opts = append(opts, processor.WithAutoCreateSuppliers(accountRef))
	}

	return runBatch(cmd.Context(), processor.NewPipeline(opts...), args)
}
