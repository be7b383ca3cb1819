package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// Parse parses a numeric string written with either ',' or '.' as decimal
// separator. When both appear, the last one is the decimal separator and
// the other is a thousands separator. Missing or non-numeric values are zero.
func Parse(s string) decimal.Decimal {
	d, ok := parse(s)
	if !ok {
		return Zero
	}
	return d
}

// ParseOptional is like Parse but reports whether a numeric value was present
func ParseOptional(s string) decimal.NullDecimal {
	d, ok := parse(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

func parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, false
	}
	s = strings.ReplaceAll(s, " ", "")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return Zero, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, false
	}
	return d, true
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// RoundCents rounds to two decimals (euro cents)
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NetOfVAT splits a VAT-inclusive gross amount: gross / (1 + rate/100)
func NetOfVAT(gross, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return RoundCents(gross)
	}
	divisor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
	return RoundCents(gross.Div(divisor))
}
