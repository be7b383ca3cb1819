package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
	"github.com/rezonia/fattura-processor/internal/supplier"
)

var supplierPayload model.SupplierPayload

var supplierCmd = &cobra.Command{
	Use:   "supplier",
	Short: "Manage the supplier registry",
}

var supplierListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered suppliers",
	Args:  cobra.NoArgs,
	RunE:  runSupplierList,
}

var supplierAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a supplier",
	Long: `Register a supplier. The VAT number is normalized to 11 digits and
the fiscal code upper-cased. Adding a supplier whose VAT number is
already registered returns the existing entry.

Examples:
  fattura-processor supplier add --name "Studio Rossi S.r.l." --tax-id IT01234567890`,
	Args: cobra.NoArgs,
	RunE: runSupplierAdd,
}

func init() {
	rootCmd.AddCommand(supplierCmd)
	supplierCmd.AddCommand(supplierListCmd)
	supplierCmd.AddCommand(supplierAddCmd)

	supplierAddCmd.Flags().StringVar(&supplierPayload.Name, "name", "", "Supplier name")
	supplierAddCmd.Flags().StringVar(&supplierPayload.TaxID, "tax-id", "", "VAT number")
	supplierAddCmd.Flags().StringVar(&supplierPayload.TaxCountry, "tax-country", "", "Country that issued the VAT number (empty means IT)")
	supplierAddCmd.Flags().StringVar(&supplierPayload.FiscalCode, "fiscal-code", "", "Fiscal code")
	supplierAddCmd.Flags().StringVar(&supplierPayload.Address, "address", "", "Street address")
	supplierAddCmd.Flags().StringVar(&supplierPayload.PostalCode, "postal-code", "", "Postal code")
	supplierAddCmd.Flags().StringVar(&supplierPayload.City, "city", "", "City")
	supplierAddCmd.Flags().StringVar(&supplierPayload.Province, "province", "", "Province")
	supplierAddCmd.Flags().StringVar(&supplierPayload.Country, "country", "IT", "Country code")
	supplierAddCmd.Flags().StringVar(&defaultAccountRef, "account-ref", "", "Default account reference")
}

func runSupplierList(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	suppliers, err := store.Suppliers(cmd.Context())
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return writeJSON(os.Stdout, suppliers)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAX ID\tFISCAL CODE\tACCOUNT")
	for _, s := range suppliers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.TaxID, s.FiscalCode, s.DefaultAccountRef)
	}
	return tw.Flush()
}

func runSupplierAdd(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	accountRef := defaultAccountRef
	if accountRef == "" {
		accountRef = cfg.Supplier.DefaultAccountRef
	}

	matcher := supplier.NewMatcher(store, supplier.WithLogger(logger.WithComponent("supplier")))
	rec, err := matcher.CreateFromPayload(cmd.Context(), supplierPayload, accountRef)
	if err != nil {
		return err
	}

	printVerbose("Supplier %s registered\n", rec.ID)
	return writeJSON(os.Stdout, rec)
}
