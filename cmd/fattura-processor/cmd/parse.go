package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/processor"
)

const defaultBatchTimeout = 2 * time.Minute

var (
	outputFile  string
	timeout     time.Duration
	concurrency int
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse invoice files",
	Long: `Parse one or more FatturaPA files and print the invoice data, the
computed amounts and the payment installments.

Documents with blocking errors are reported but do not stop the run.
Signed .p7m envelopes are detected and reported as unsupported.

Examples:
  fattura-processor parse invoice.xml
  fattura-processor parse invoices/ -f table
  fattura-processor parse *.xml -o results.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	parseCmd.Flags().DurationVar(&timeout, "timeout", defaultBatchTimeout, "Timeout for the whole batch")
	parseCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Documents parsed at once")
}

func runParse(cmd *cobra.Command, args []string) error {
	pipeline := processor.NewPipeline(
		processor.WithConcurrency(concurrency),
		processor.WithLogger(logger.WithComponent("processor")),
	)
	return runBatch(cmd.Context(), pipeline, args)
}

// runBatch imports files through pipeline and prints the results
func runBatch(ctx context.Context, pipeline *processor.Pipeline, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}
	printVerbose("Found %d files to process\n", len(files))

	docs, err := readDocuments(files)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := pipeline.ImportBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	w, closeOutput, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	if outputFormat == "table" {
		return outputTable(w, results)
	}
	return writeJSON(w, results)
}

func outputTable(w io.Writer, results []*processor.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNUMBER\tDATE\tSUPPLIER\tTOTAL\tINSTALLMENTS\tSTATUS")
	fmt.Fprintln(tw, "----\t------\t----\t--------\t-----\t------------\t------")

	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Error != nil {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\n", r.FileName, r.Error)
			continue
		}
		if r.Invoice == nil {
			code := ""
			if len(r.Errors) > 0 {
				code = r.Errors[0].Code
			}
			fmt.Fprintf(tw, "%s\t\t\t\t\t\tREJECTED %s\n", r.FileName, code)
			continue
		}

		status := "OK"
		if r.NeedsReview() {
			status = fmt.Sprintf("REVIEW (%d warnings)", len(r.Warnings))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.FileName,
			r.Invoice.Number,
			r.Invoice.IssueDate.Format("2006-01-02"),
			r.Invoice.Supplier.Name,
			r.Amounts.Total.StringFixed(2),
			len(r.Installments),
			status,
		)
	}

	return tw.Flush()
}
