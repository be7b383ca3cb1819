// Package invoicelib provides a public API for importing Italian FatturaPA
// e-invoices and posting daily cash closures.
//
// Example usage:
//
//	inv, err := invoicelib.Parse(data, "IT01234567890_FPR12.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(invoicelib.ComputeAmounts(inv).Total)
package invoicelib

import (
	"errors"

	"github.com/rezonia/fattura-processor/internal/model"
)

// Re-export core types for public API
type (
	ParsedInvoice   = model.ParsedInvoice
	PartyIdentity   = model.PartyIdentity
	LineItem        = model.LineItem
	VATSummaryRow   = model.VATSummaryRow
	PaymentSchedule = model.PaymentSchedule
	Installment     = model.Installment
	Amounts         = model.Amounts
	DocumentType    = model.DocumentType
	Issue           = model.Issue
	ParseResult     = model.ParseResult
)

// Re-export supplier and ledger types
type (
	SupplierRecord      = model.SupplierRecord
	SupplierPayload     = model.SupplierPayload
	SupplierMatchResult = model.SupplierMatchResult
	DailyClosure        = model.DailyClosure
	CashStation         = model.CashStation
	Expense             = model.Expense
	ClosureTotals       = model.ClosureTotals
	JournalEntry        = model.JournalEntry
	PostingResult       = model.PostingResult
)

// Re-export issue codes
const (
	CodeInvalidXML            = model.CodeInvalidXML
	CodeMissingRoot           = model.CodeMissingRoot
	CodeMissingVAT            = model.CodeMissingVAT
	CodeMissingDocumentNumber = model.CodeMissingDocumentNumber
	CodeMissingDate           = model.CodeMissingDate
	CodeUnknownDocumentType   = model.CodeUnknownDocumentType
	CodeEmptyLineItems        = model.CodeEmptyLineItems
	CodeMissingTotalAmount    = model.CodeMissingTotalAmount
	CodeInstallmentsMismatch  = model.CodeInstallmentsMismatch
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ValidationError = model.ValidationError
)

// Re-export sentinel errors
var (
	ErrNotFound             = model.ErrNotFound
	ErrDuplicateSupplier    = model.ErrDuplicateSupplier
	ErrClosureAlreadyPosted = model.ErrClosureAlreadyPosted
	ErrEnvelopeNotSupported = model.ErrEnvelopeNotSupported
)

var errNoStore = errors.New("invoicelib: processor has no store")
