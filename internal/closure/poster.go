package closure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fattura-processor/internal/decimal"
	"github.com/rezonia/fattura-processor/internal/logger"
	"github.com/rezonia/fattura-processor/internal/model"
)

// LedgerStore persists journal entries. AppendEntries must store the whole
// batch or nothing. DeleteByClosure returns 0 when there is nothing to delete.
type LedgerStore interface {
	AppendEntries(ctx context.Context, entries []model.JournalEntry) error
	DeleteByClosure(ctx context.Context, closureID string) (int, error)
	ListByClosure(ctx context.Context, closureID string) ([]model.JournalEntry, error)
}

// Poster writes closures to the ledger
type Poster struct {
	store  LedgerStore
	logger zerolog.Logger
	now    func() time.Time
}

// PosterOption configures a Poster
type PosterOption func(*Poster)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) PosterOption {
	return func(p *Poster) {
		p.logger = l
	}
}

// WithClock overrides the CreatedAt source
func WithClock(now func() time.Time) PosterOption {
	return func(p *Poster) {
		p.now = now
	}
}

// NewPoster creates a poster writing to store
func NewPoster(store LedgerStore, opts ...PosterOption) *Poster {
	p := &Poster{
		store:  store,
		logger: logger.WithComponent("ledger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildEntries derives the journal entries of a closure without storing
// them. Entries are never created for zero amounts:
//
//  1. cash sales: CASH debit of cash + expenses
//  2. each positive expense: CASH credit with its account reference
//  3. bank deposit: CASH credit and BANK debit of the same amount
//  4. POS receipts: BANK debit
func BuildEntries(c *model.DailyClosure, actorID string, createdAt time.Time) []model.JournalEntry {
	totals := ComputeClosureTotals(c.Stations, c.Expenses, money.Zero)

	var entries []model.JournalEntry
	add := func(register model.RegisterType, debit, credit decimal.Decimal, accountRef, description string) {
		entries = append(entries, model.JournalEntry{
			ID:          uuid.NewString(),
			ClosureID:   c.ID,
			Register:    register,
			Debit:       debit,
			Credit:      credit,
			AccountRef:  accountRef,
			Description: description,
			Date:        c.Date,
			CreatedBy:   actorID,
			CreatedAt:   createdAt,
		})
	}

	if money.IsPositive(totals.CashTotal) {
		add(model.RegisterCash, totals.CashIncomeTotal, money.Zero, "", "Cash income")
	}

	for _, e := range c.Expenses {
		if !money.IsPositive(e.Amount) {
			continue
		}
		description := "Expense"
		if e.Payee != "" {
			description = fmt.Sprintf("Expense: %s", e.Payee)
		}
		add(model.RegisterCash, money.Zero, e.Amount, e.AccountRef, description)
	}

	if money.IsPositive(c.BankDeposit) {
		add(model.RegisterCash, money.Zero, c.BankDeposit, "", "Bank deposit")
		add(model.RegisterBank, c.BankDeposit, money.Zero, "", "Bank deposit")
	}

	if money.IsPositive(totals.POSTotal) {
		add(model.RegisterBank, totals.POSTotal, money.Zero, "", "POS receipts")
	}

	return entries
}

// Summarize counts entries and sums both sides
func Summarize(entries []model.JournalEntry) *model.PostingResult {
	result := &model.PostingResult{
		EntriesCreated: len(entries),
		TotalDebits:    money.Zero,
		TotalCredits:   money.Zero,
	}
	for _, e := range entries {
		result.TotalDebits = result.TotalDebits.Add(e.Debit)
		result.TotalCredits = result.TotalCredits.Add(e.Credit)
	}
	return result
}

// Post writes the entries of a closure in one batch and marks the closure
// posted. A closure already posted, by status or by entries present in the
// ledger, is refused with model.ErrClosureAlreadyPosted until it is reversed.
// A closure without monetary activity posts zero entries.
//
// The check and the append are not atomic: concurrent Post calls for the
// same closure can both pass the check. Callers serialize posting per
// closure.
func (p *Poster) Post(ctx context.Context, c *model.DailyClosure, actorID string) (*model.PostingResult, error) {
	if c.ID == "" {
		return nil, model.NewValidationError("id", nil, "required", "closure id is required")
	}
	if c.Status == model.ClosureStatusPosted {
		return nil, model.ErrClosureAlreadyPosted
	}

	existing, err := p.store.ListByClosure(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entries: %w", err)
	}
	if len(existing) > 0 {
		return nil, model.ErrClosureAlreadyPosted
	}

	entries := BuildEntries(c, actorID, p.now().UTC())
	if len(entries) > 0 {
		if err := p.store.AppendEntries(ctx, entries); err != nil {
			return nil, err
		}
	}

	c.Status = model.ClosureStatusPosted
	result := Summarize(entries)

	p.logger.Info().
		Str("closure_id", c.ID).
		Str("actor_id", actorID).
		Int("entries", result.EntriesCreated).
		Str("debits", result.TotalDebits.StringFixed(2)).
		Str("credits", result.TotalCredits.StringFixed(2)).
		Msg("closure posted")

	return result, nil
}

// Reverse deletes every entry of a closure and returns how many were
// removed. Reversing a closure with no entries returns 0. The caller moves
// the closure back to draft.
func (p *Poster) Reverse(ctx context.Context, closureID string) (int, error) {
	n, err := p.store.DeleteByClosure(ctx, closureID)
	if err != nil {
		return 0, err
	}

	p.logger.Info().Str("closure_id", closureID).Int("entries", n).Msg("closure reversed")
	return n, nil
}

// Entries lists the entries of a closure
func (p *Poster) Entries(ctx context.Context, closureID string) ([]model.JournalEntry, error) {
	return p.store.ListByClosure(ctx, closureID)
}
