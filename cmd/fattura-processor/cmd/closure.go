package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
)

var (
	actorID string
	vatRate string
)

var closureCmd = &cobra.Command{
	Use:   "closure",
	Short: "Compute and post daily cash closures",
	Long: `Daily closures are read from YAML files:

  id: 2024-03-15-bar
  date: 2024-03-15
  venue_id: venue-1
  stations:
    - name: Bar
      cash: 400
      pos: 200
      float: 100
      counted: 390
  expenses:
    - amount: 50
      payee: Fornitore pane
      account_ref: "6010"
  bank_deposit: 300`,
}

var closureTotalsCmd = &cobra.Command{
	Use:   "totals <closure.yaml>",
	Short: "Compute the totals of a closure",
	Args:  cobra.ExactArgs(1),
	RunE:  runClosureTotals,
}

var closurePostCmd = &cobra.Command{
	Use:   "post <closure.yaml>",
	Short: "Post a closure to the cash and bank registers",
	Args:  cobra.ExactArgs(1),
	RunE:  runClosurePost,
}

var closureReverseCmd = &cobra.Command{
	Use:   "reverse <closure-id>",
	Short: "Remove every journal entry of a closure",
	Args:  cobra.ExactArgs(1),
	RunE:  runClosureReverse,
}

func init() {
	rootCmd.AddCommand(closureCmd)
	closureCmd.AddCommand(closureTotalsCmd)
	closureCmd.AddCommand(closurePostCmd)
	closureCmd.AddCommand(closureReverseCmd)

	closureCmd.PersistentFlags().StringVar(&vatRate, "vat-rate", "", "VAT rate in percent (default from config)")
	closurePostCmd.Flags().StringVar(&actorID, "actor", "", "User posting the closure")
	_ = closurePostCmd.MarkFlagRequired("actor")
}

func loadClosure(path string) (*model.DailyClosure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open closure: %w", err)
	}
	defer f.Close()

	return closure.LoadYAML(f)
}

func closureVATRate() (decimal.Decimal, error) {
	if vatRate == "" {
		return cfg.VATRate(), nil
	}
	rate, err := decimal.NewFromString(vatRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid VAT rate: %s", vatRate)
	}
	return rate, nil
}

func closureTotals(c *model.DailyClosure) (model.ClosureTotals, error) {
	rate, err := closureVATRate()
	if err != nil {
		return model.ClosureTotals{}, err
	}
	return closure.Totals(c, rate, closure.WithDifferenceThreshold(cfg.DifferenceThreshold())), nil
}

func runClosureTotals(cmd *cobra.Command, args []string) error {
	c, err := loadClosure(args[0])
	if err != nil {
		return err
	}

	totals, err := closureTotals(c)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return writeJSON(os.Stdout, totals)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Cash", totals.CashTotal},
		{"POS", totals.POSTotal},
		{"Sales", totals.SalesTotal},
		{"Net sales", totals.NetSales},
		{"VAT", totals.VATAmount},
		{"Expenses", totals.ExpensesTotal},
		{"Gross", totals.GrossTotal},
		{"Cash income", totals.CashIncomeTotal},
		{"Counted", totals.CountedTotal},
		{"Difference", totals.CashDifference},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.label, r.value.StringFixed(2))
	}
	if totals.HasSignificantDifference {
		fmt.Fprintf(tw, "⚠ cash difference above %s\t\n", cfg.DifferenceThreshold().StringFixed(2))
	}
	return tw.Flush()
}

func runClosurePost(cmd *cobra.Command, args []string) error {
	c, err := loadClosure(args[0])
	if err != nil {
		return err
	}

	totals, err := closureTotals(c)
	if err != nil {
		return err
	}
	if totals.HasSignificantDifference {
		printVerbose("Warning: cash difference of %s\n", totals.CashDifference.StringFixed(2))
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	poster := closure.NewPoster(store, closure.WithLogger(logger.WithComponent("closure")))
	result, err := poster.Post(cmd.Context(), c, actorID)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return writeJSON(os.Stdout, struct {
			*model.PostingResult
			Totals model.ClosureTotals `json:"totals"`
		}{result, totals})
	}

	fmt.Printf("Posted %s: %d entries, debits %s, credits %s\n",
		c.ID, result.EntriesCreated, result.TotalDebits.StringFixed(2), result.TotalCredits.StringFixed(2))
	return nil
}

func runClosureReverse(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openPersistentStore("closure reverse")
	if err != nil {
		return err
	}
	defer closeStore()

	poster := closure.NewPoster(store, closure.WithLogger(logger.WithComponent("closure")))
	n, err := poster.Reverse(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return writeJSON(os.Stdout, map[string]interface{}{
			"closure_id": args[0],
			"deleted":    n,
		})
	}
	fmt.Printf("Reversed %s: %d entries removed\n", args[0], n)
	return nil
}
