// Package taxid normalizes VAT numbers (partita IVA) so that registry
// lookups are independent of how a document or an operator wrote them.
package taxid

import (
	"strings"
	"unicode"
)

// Length is the number of digits of a domestic VAT number
const Length = 11

// maxPadding is how many lost leading zeros Normalize restores. Shorter
// numbers are not domestic VAT numbers and pass through.
const maxPadding = 2

// Normalize canonicalizes a VAT number.
//
// Separators (whitespace, '-', '.') are removed and letters upper-cased. A
// two-letter country prefix is dropped when the rest is a full-length
// numeric identifier, and a numeric identifier one or two digits shorter
// than Length is left-padded with zeros. Values that do not fit this shape are treated as
// opaque foreign identifiers and returned trimmed but otherwise unchanged.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	cleaned := clean(trimmed)
	if cleaned == "" {
		return ""
	}

	if len(cleaned) > 2 && isLetter(cleaned[0]) && isLetter(cleaned[1]) {
		rest := cleaned[2:]
		if len(rest) == Length && isDigits(rest) {
			return rest
		}
		return trimmed
	}

	if !isDigits(cleaned) {
		return trimmed
	}
	if len(cleaned) == Length {
		return cleaned
	}
	if len(cleaned) < Length && Length-len(cleaned) <= maxPadding {
		return strings.Repeat("0", Length-len(cleaned)) + cleaned
	}
	return trimmed
}

// IsDomestic reports whether a VAT number issued by country follows the
// domestic format. An empty country is taken as domestic.
func IsDomestic(country string) bool {
	c := strings.ToUpper(strings.TrimSpace(country))
	return c == "" || c == "IT"
}

// NormalizeFor normalizes a VAT number issued by country. Foreign
// identifiers are only trimmed.
func NormalizeFor(country, raw string) string {
	if !IsDomestic(country) {
		return strings.TrimSpace(raw)
	}
	return Normalize(raw)
}

// VariantsFor is Variants for a VAT number issued by country. A foreign
// identifier is looked up exactly as written.
func VariantsFor(country, raw string) []string {
	if !IsDomestic(country) {
		if id := strings.TrimSpace(raw); id != "" {
			return []string{id}
		}
		return nil
	}
	return Variants(raw)
}

// IsValid reports whether s is already a canonical domestic VAT number
func IsValid(s string) bool {
	return len(s) == Length && isDigits(s)
}

// Variants returns the identifiers to try when looking up a registry that
// may hold legacy rows written before normalization: the normalized form
// first, then the form without leading zeros when it differs.
func Variants(raw string) []string {
	normalized := Normalize(raw)
	if normalized == "" {
		return nil
	}

	variants := []string{normalized}
	if isDigits(normalized) {
		stripped := strings.TrimLeft(normalized, "0")
		if stripped != "" && stripped != normalized {
			variants = append(variants, stripped)
		}
	}
	return variants
}

// NormalizeFiscalCode canonicalizes a codice fiscale: no separators, upper case
func NormalizeFiscalCode(raw string) string {
	return clean(strings.TrimSpace(raw))
}

func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
