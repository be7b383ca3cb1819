package invoice_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/fattura-processor/internal/invoice"
	"github.com/rezonia/fattura-processor/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func summary(pairs ...string) []model.VATSummaryRow {
	rows := make([]model.VATSummaryRow, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, model.VATSummaryRow{Taxable: d(pairs[i]), Tax: d(pairs[i+1])})
	}
	return rows
}

func TestComputeAmounts_DeclaredTotalWins(t *testing.T) {
	inv := &model.ParsedInvoice{
		DocumentTotal: decimal.NewNullDecimal(d("482.85")),
		VATSummary:    summary("39.00", "3.90", "360.00", "79.20", "0.75", "0.00"),
	}

	amounts := invoice.ComputeAmounts(inv)

	assert.True(t, amounts.Total.Equal(d("482.85")), "total: %s", amounts.Total)
	assert.True(t, amounts.Net.Equal(d("399.75")), "net: %s", amounts.Net)
	assert.True(t, amounts.VAT.Equal(d("83.10")), "vat: %s", amounts.VAT)
}

func TestComputeAmounts_DeclaredTotalWinsOverRoundedRows(t *testing.T) {
	inv := &model.ParsedInvoice{
		DocumentTotal: decimal.NewNullDecimal(d("100.00")),
		VATSummary:    summary("81.97", "18.04"),
	}

	amounts := invoice.ComputeAmounts(inv)

	assert.True(t, amounts.Total.Equal(d("100.00")))
	assert.True(t, amounts.Net.Add(amounts.VAT).Equal(d("100.01")))
}

func TestComputeAmounts_DerivedTotal(t *testing.T) {
	tests := []struct {
		name     string
		total    decimal.NullDecimal
		rounding string
		expected string
	}{
		{"missing total", decimal.NullDecimal{}, "0", "122.00"},
		{"missing total with rounding", decimal.NullDecimal{}, "-0.01", "121.99"},
		{"zero total is not authoritative", decimal.NewNullDecimal(decimal.Zero), "0", "122.00"},
		{"negative total is not authoritative", decimal.NewNullDecimal(d("-5")), "0", "122.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &model.ParsedInvoice{
				DocumentTotal: tt.total,
				Rounding:      d(tt.rounding),
				VATSummary:    summary("100.00", "22.00"),
			}

			amounts := invoice.ComputeAmounts(inv)

			assert.True(t, amounts.Net.Equal(d("100.00")))
			assert.True(t, amounts.VAT.Equal(d("22.00")))
			assert.True(t, amounts.Total.Equal(d(tt.expected)), "total: %s", amounts.Total)
		})
	}
}

func TestComputeAmounts_Empty(t *testing.T) {
	amounts := invoice.ComputeAmounts(&model.ParsedInvoice{})

	assert.True(t, amounts.Net.IsZero())
	assert.True(t, amounts.VAT.IsZero())
	assert.True(t, amounts.Total.IsZero())
}

func TestExtractInstallments_NoSchedule(t *testing.T) {
	issued := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	inv := &model.ParsedInvoice{
		IssueDate:     issued,
		DocumentTotal: decimal.NewNullDecimal(d("482.85")),
		VATSummary:    summary("399.75", "83.10"),
	}

	installments := invoice.ExtractInstallments(inv)

	require.Len(t, installments, 1)
	assert.Equal(t, model.PaymentMethodUnspecified, installments[0].Method)
	require.NotNil(t, installments[0].DueDate)
	assert.Equal(t, issued, *installments[0].DueDate)
	assert.True(t, installments[0].Amount.Equal(d("482.85")))
}

func TestExtractInstallments_EmptySchedule(t *testing.T) {
	inv := &model.ParsedInvoice{
		Payment:    &model.PaymentSchedule{Terms: "TP02"},
		VATSummary: summary("10.00", "2.20"),
	}

	installments := invoice.ExtractInstallments(inv)

	require.Len(t, installments, 1)
	assert.True(t, installments[0].Amount.Equal(d("12.20")))
}

func TestExtractInstallments_ThreeEqual(t *testing.T) {
	issued := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	july := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	inv := &model.ParsedInvoice{
		IssueDate:     issued,
		DocumentTotal: decimal.NewNullDecimal(d("300.00")),
		Payment: &model.PaymentSchedule{
			Terms: "TP01",
			Installments: []model.Installment{
				{Method: "MP05", DueDate: &june, Amount: d("100.00")},
				{Method: "MP05", DueDate: &july, Amount: d("100.00"), IBAN: "IT60X0542811101000000123456"},
				{Method: "MP05", Amount: d("100.00")},
			},
		},
	}

	installments := invoice.ExtractInstallments(inv)

	require.Len(t, installments, 3)
	assert.True(t, invoice.InstallmentsTotal(installments).Equal(inv.DocumentTotal.Decimal))
	assert.Equal(t, june, *installments[0].DueDate)
	assert.Equal(t, "IT60X0542811101000000123456", installments[1].IBAN)
	require.NotNil(t, installments[2].DueDate)
	assert.Equal(t, issued, *installments[2].DueDate)

	// The source schedule is left untouched
	assert.Nil(t, inv.Payment.Installments[2].DueDate)
}
