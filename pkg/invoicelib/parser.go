package invoicelib

import (
	"io"

	"github.com/shopspring/decimal"

	"github.com/rezonia/fattura-processor/internal/closure"
	"github.com/rezonia/fattura-processor/internal/invoice"
	"github.com/rezonia/fattura-processor/internal/model"
	xmlparser "github.com/rezonia/fattura-processor/internal/parser/xml"
	"github.com/rezonia/fattura-processor/internal/taxid"
)

// Parse decodes and strictly validates a document. The first missing
// mandatory field is returned as a *ParseError.
func Parse(data []byte, fileName string) (*ParsedInvoice, error) {
	return xmlparser.Parse(data, fileName)
}

// ParseReader reads r fully and parses it
func ParseReader(r io.Reader, fileName string) (*ParsedInvoice, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.CodeInvalidXML, "", "failed to read input", err)
	}
	return Parse(data, fileName)
}

// ParseSafe never fails: every problem is reported in the result
func ParseSafe(data []byte, fileName string) *ParseResult {
	return xmlparser.ParseSafe(data, fileName)
}

// ComputeAmounts returns net, VAT and total of an invoice
func ComputeAmounts(inv *ParsedInvoice) Amounts {
	return invoice.ComputeAmounts(inv)
}

// ExtractInstallments returns the payment schedule of an invoice, with
// a single installment due at the issue date when none is declared
func ExtractInstallments(inv *ParsedInvoice) []Installment {
	return invoice.ExtractInstallments(inv)
}

// NormalizeTaxID returns the canonical 11-digit form of an Italian VAT
// number. Identifiers that cannot be normalized are returned trimmed.
func NormalizeTaxID(raw string) string {
	return taxid.Normalize(raw)
}

// ComputeClosureTotals aggregates the stations and expenses of a closure.
// vatRate is a percentage included in sales.
func ComputeClosureTotals(stations []CashStation, expenses []Expense, vatRate decimal.Decimal) ClosureTotals {
	return closure.ComputeClosureTotals(stations, expenses, vatRate)
}
