// Package money is the single place amounts are parsed and magnitudes
// taken. Every component converts statement text to decimals through
// ParseAmount so the parsed sign survives unmodified end to end; Magnitude
// exists for the one legitimate absolute-value site (the aggregate-payment
// comparison total) and for reporting differences.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a statement amount field to a signed decimal.
//
// Accepted forms: optional leading sign, digits with either a dot decimal
// separator ("1234.56") or a comma decimal separator with optional dot
// thousands groups ("1.234,56"). Anything else is rejected rather than
// guessed at.
//
// The sign is preserved exactly. Callers must not re-derive it.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}

	// Currency symbols commonly present in exports.
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "R$"))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "$"))

	neg := false
	switch {
	case strings.HasPrefix(cleaned, "-"):
		neg = true
		cleaned = cleaned[1:]
	case strings.HasPrefix(cleaned, "+"):
		cleaned = cleaned[1:]
	}

	if strings.ContainsRune(cleaned, ',') {
		// Comma decimal separator: dots are thousands groups.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		if strings.ContainsRune(cleaned, ',') {
			return decimal.Zero, fmt.Errorf("invalid amount %q: multiple decimal separators", s)
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Magnitude returns the absolute value of d.
//
// This is the only sanctioned absolute-value helper. It is legitimate in
// exactly two places: deriving the comparison total from an
// aggregate-payment line, and reporting the size of a reconciliation
// difference. Using it on purchase or refund amounts is a defect.
func Magnitude(d decimal.Decimal) decimal.Decimal {
	return d.Abs()
}

// Sum returns the algebraic sum of ds. Purchases (positive) add and
// refunds (negative) subtract by construction; no term is rectified.
func Sum(ds []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}
