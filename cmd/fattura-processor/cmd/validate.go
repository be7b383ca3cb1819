package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/fattura-processor/internal/model"
	xmlparser "github.com/rezonia/fattura-processor/internal/parser/xml"
)

var (
	strictValidation bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files",
	Long: `Validate one or more FatturaPA files.

Blocking errors:
  - MISSING_VAT: supplier has neither VAT number nor fiscal code
  - MISSING_DOCUMENT_NUMBER, MISSING_DATE
  - INVALID_XML, MISSING_ROOT

Warnings:
  - UNKNOWN_DOCUMENT_TYPE, EMPTY_LINE_ITEMS, MISSING_TOTAL_AMOUNT

Examples:
  fattura-processor validate invoice.xml
  fattura-processor validate *.xml --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	if outputFormat == "json" {
		if err := writeJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				for _, e := range r.Errors {
					fmt.Printf("  - %s: %s\n", e.Code, e.Message)
				}
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s: %s\n", w.Code, w.Message)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(filePath string) *ValidationResult {
	result := &ValidationResult{
		File:     filePath,
		Errors:   []model.Issue{},
		Warnings: []model.Issue{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, model.Issue{
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
		return result
	}

	parsed := xmlparser.ParseSafe(data, filePath)
	result.Errors = append(result.Errors, parsed.Errors...)
	result.Warnings = append(result.Warnings, parsed.Warnings...)

	result.Valid = parsed.Success
	if strictValidation && len(parsed.Warnings) > 0 {
		result.Valid = false
	}

	return result
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string        `json:"file"`
	Valid    bool          `json:"valid"`
	Errors   []model.Issue `json:"errors"`
	Warnings []model.Issue `json:"warnings"`
}
