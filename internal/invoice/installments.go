package invoice

import "github.com/rezonia/fattura-processor/internal/model"

// ExtractInstallments returns the payment schedule of a document. A
// document without payment details yields one installment for the whole
// computed total, due on the issue date. Declared installments are kept
// as they are except that a missing due date becomes the issue date.
func ExtractInstallments(inv *model.ParsedInvoice) []model.Installment {
	if inv.Payment == nil || len(inv.Payment.Installments) == 0 {
		due := inv.IssueDate
		return []model.Installment{{
			Method:  model.PaymentMethodUnspecified,
			DueDate: &due,
			Amount:  ComputeAmounts(inv).Total,
		}}
	}

	out := make([]model.Installment, 0, len(inv.Payment.Installments))
	for _, inst := range inv.Payment.Installments {
		if inst.DueDate == nil {
			due := inv.IssueDate
			inst.DueDate = &due
		}
		out = append(out, inst)
	}
	return out
}
