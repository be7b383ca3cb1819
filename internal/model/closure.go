package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosureStatus tracks whether a closure has been posted to the ledger
type ClosureStatus string

const (
	ClosureStatusDraft  ClosureStatus = "draft"
	ClosureStatusPosted ClosureStatus = "posted"
)

// DailyClosure is the end-of-day reconciliation of a venue.
// Once posted it must be reversed before it can be posted again.
type DailyClosure struct {
	ID          string          `json:"id" yaml:"id"`
	Date        time.Time       `json:"date" yaml:"date"`
	VenueID     string          `json:"venue_id" yaml:"venue_id"`
	Stations    []CashStation   `json:"stations" yaml:"stations"`
	Expenses    []Expense       `json:"expenses" yaml:"expenses"`
	BankDeposit decimal.Decimal `json:"bank_deposit" yaml:"bank_deposit"`
	Status      ClosureStatus   `json:"status,omitempty" yaml:"status"`
}

// CashStation is one till of the venue
type CashStation struct {
	Name    string          `json:"name,omitempty" yaml:"name"`
	Cash    decimal.Decimal `json:"cash" yaml:"cash"`
	POS     decimal.Decimal `json:"pos" yaml:"pos"`
	Float   decimal.Decimal `json:"float" yaml:"float"`
	Counted decimal.Decimal `json:"counted" yaml:"counted"`
}

// Expense is a payment made out of the till
type Expense struct {
	Amount     decimal.Decimal `json:"amount" yaml:"amount"`
	Payee      string          `json:"payee" yaml:"payee"`
	AccountRef string          `json:"account_ref,omitempty" yaml:"account_ref"`
	Source     string          `json:"source,omitempty" yaml:"source"`
}

// ClosureTotals aggregates the stations and expenses of a closure.
//
// CashDifference compares counted till cash against declared cash sales
// only; expenses are left out because they may be funded from elsewhere.
// CashIncomeTotal is the separate figure that does include them.
type ClosureTotals struct {
	CashTotal                decimal.Decimal `json:"cash_total"`
	POSTotal                 decimal.Decimal `json:"pos_total"`
	CountedTotal             decimal.Decimal `json:"counted_total"`
	ExpensesTotal            decimal.Decimal `json:"expenses_total"`
	CashDifference           decimal.Decimal `json:"cash_difference"`
	SalesTotal               decimal.Decimal `json:"sales_total"`
	GrossTotal               decimal.Decimal `json:"gross_total"`
	CashIncomeTotal          decimal.Decimal `json:"cash_income_total"`
	NetSales                 decimal.Decimal `json:"net_sales"`
	VATAmount                decimal.Decimal `json:"vat_amount"`
	HasSignificantDifference bool            `json:"has_significant_difference"`
}
