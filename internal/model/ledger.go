package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterType names the cash pool a journal entry affects
type RegisterType string

const (
	RegisterCash RegisterType = "CASH"
	RegisterBank RegisterType = "BANK"
)

// JournalEntry is one debit or one credit against a register.
// Exactly one of Debit and Credit is non-zero.
type JournalEntry struct {
	ID          string          `json:"id"`
	ClosureID   string          `json:"closure_id"`
	Register    RegisterType    `json:"register"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	AccountRef  string          `json:"account_ref,omitempty"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Amount returns whichever side of the entry is set
func (e JournalEntry) Amount() decimal.Decimal {
	if !e.Debit.IsZero() {
		return e.Debit
	}
	return e.Credit
}

// IsDebit reports whether the entry is a debit
func (e JournalEntry) IsDebit() bool {
	return !e.Debit.IsZero()
}

// PostingResult summarizes one ledger posting
type PostingResult struct {
	EntriesCreated int             `json:"entries_created"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
}
