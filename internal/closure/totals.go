// Package closure turns end-of-day cash closures into totals and ledger
// entries.
package closure

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fattura-processor/internal/decimal"
	"github.com/rezonia/fattura-processor/internal/model"
)

// DefaultDifferenceThreshold is the cash difference, in euro, above which
// a counted closure is flagged
var DefaultDifferenceThreshold = decimal.NewFromInt(5)

type totalsConfig struct {
	threshold decimal.Decimal
}

// TotalsOption configures ComputeClosureTotals
type TotalsOption func(*totalsConfig)

// WithDifferenceThreshold overrides DefaultDifferenceThreshold
func WithDifferenceThreshold(threshold decimal.Decimal) TotalsOption {
	return func(c *totalsConfig) {
		c.threshold = threshold
	}
}

// ComputeClosureTotals aggregates the stations and expenses of a closure.
// Station floats never count as sales. vatRate is the percentage included
// in sales and is used to split SalesTotal into NetSales and VATAmount.
func ComputeClosureTotals(stations []model.CashStation, expenses []model.Expense, vatRate decimal.Decimal, opts ...TotalsOption) model.ClosureTotals {
	cfg := totalsConfig{threshold: DefaultDifferenceThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	var t model.ClosureTotals
	t.CashTotal, t.POSTotal, t.CountedTotal = money.Zero, money.Zero, money.Zero
	for _, s := range stations {
		t.CashTotal = t.CashTotal.Add(s.Cash)
		t.POSTotal = t.POSTotal.Add(s.POS)
		t.CountedTotal = t.CountedTotal.Add(s.Counted)
	}

	t.ExpensesTotal = money.Zero
	for _, e := range expenses {
		t.ExpensesTotal = t.ExpensesTotal.Add(e.Amount)
	}

	// Expenses may be paid from outside the till, so they stay out of the
	// till reconciliation and only show up in CashIncomeTotal.
	t.CashDifference = t.CountedTotal.Sub(t.CashTotal)
	t.SalesTotal = t.CashTotal.Add(t.POSTotal)
	t.GrossTotal = t.SalesTotal.Add(t.ExpensesTotal)
	t.CashIncomeTotal = t.CashTotal.Add(t.ExpensesTotal)

	t.NetSales = money.NetOfVAT(t.SalesTotal, vatRate)
	t.VATAmount = t.SalesTotal.Sub(t.NetSales)

	t.HasSignificantDifference = money.IsPositive(t.CountedTotal) &&
		t.CashDifference.Abs().GreaterThan(cfg.threshold)

	return t
}

// Totals computes the totals of a whole closure
func Totals(c *model.DailyClosure, vatRate decimal.Decimal, opts ...TotalsOption) model.ClosureTotals {
	return ComputeClosureTotals(c.Stations, c.Expenses, vatRate, opts...)
}
