package server

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/fattura-processor/internal/model"
)

// ParseResponse is the response for the parse endpoint
type ParseResponse struct {
	Success      bool                 `json:"success"`
	Invoice      *model.ParsedInvoice `json:"invoice,omitempty"`
	Amounts      *model.Amounts       `json:"amounts,omitempty"`
	Installments []model.Installment  `json:"installments,omitempty"`
	Errors       []model.Issue        `json:"errors"`
	Warnings     []model.Issue        `json:"warnings"`
}

// ValidationResponse is the response for validate endpoint
type ValidationResponse struct {
	Valid    bool          `json:"valid"`
	Errors   []model.Issue `json:"errors"`
	Warnings []model.Issue `json:"warnings"`
}

// CreateSupplierRequest is the body of the supplier creation endpoint
type CreateSupplierRequest struct {
	model.SupplierPayload
	DefaultAccountRef string `json:"default_account_ref,omitempty"`
}

// ClosureTotalsRequest is the body of the closure totals endpoint.
// VATRate defaults to the configured rate.
type ClosureTotalsRequest struct {
	Stations []model.CashStation `json:"stations"`
	Expenses []model.Expense     `json:"expenses"`
	VATRate  *decimal.Decimal    `json:"vat_rate,omitempty"`
}

// PostClosureRequest is the body of the posting endpoint
type PostClosureRequest struct {
	Closure model.DailyClosure `json:"closure"`
	ActorID string             `json:"actor_id" binding:"required"`
}

// PostClosureResponse is the response for the posting endpoint
type PostClosureResponse struct {
	model.PostingResult
	Totals model.ClosureTotals `json:"totals"`
}

// EntriesResponse lists the journal entries of a closure
type EntriesResponse struct {
	ClosureID string               `json:"closure_id"`
	Entries   []model.JournalEntry `json:"entries"`
	Totals    model.PostingResult  `json:"totals"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
