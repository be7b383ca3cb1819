// Package invoice derives payable figures from a mapped document.
package invoice

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/fattura-processor/internal/decimal"
	"github.com/rezonia/fattura-processor/internal/model"
)

// ComputeAmounts returns the net, VAT and total amounts of a document.
//
// A positive declared document total is authoritative and is returned as
// the total even when the VAT summary rounds differently; net and VAT are
// always the sums of the summary rows. Without a declared total the total
// is net + VAT + rounding.
func ComputeAmounts(inv *model.ParsedInvoice) model.Amounts {
	net, vat := summaryTotals(inv.VATSummary)

	if inv.DocumentTotal.Valid && money.IsPositive(inv.DocumentTotal.Decimal) {
		return model.Amounts{
			Net:   net,
			VAT:   vat,
			Total: inv.DocumentTotal.Decimal,
		}
	}

	return model.Amounts{
		Net:   net,
		VAT:   vat,
		Total: net.Add(vat).Add(inv.Rounding),
	}
}

func summaryTotals(rows []model.VATSummaryRow) (net, vat decimal.Decimal) {
	net, vat = money.Zero, money.Zero
	for _, row := range rows {
		net = net.Add(row.Taxable)
		vat = vat.Add(row.Tax)
	}
	return net, vat
}

// InstallmentsTotal sums the amounts of a schedule. It does not have to
// match the document total; callers surface a mismatch as a review flag.
func InstallmentsTotal(installments []model.Installment) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(installments))
	for _, inst := range installments {
		amounts = append(amounts, inst.Amount)
	}
	return money.Sum(amounts)
}
