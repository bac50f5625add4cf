// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals everywhere in the ledger; this file
// turns user-supplied strings into them.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs are rejected, and so is
// any value that rounds to zero.
//
// Examples:
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseUnsigned(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, Reject(ErrInvalidAmount, "amount", s)
	}
	return d, nil
}

// ParseNonNegativeAmount is ParseAmount that also admits zero, used for
// budget allocations.
func ParseNonNegativeAmount(s string) (decimal.Decimal, error) {
	return parseUnsigned(s)
}

func parseUnsigned(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Reject(ErrInvalidAmount, "amount", raw)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, Reject(ErrInvalidAmount, "amount", raw)
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, Reject(ErrInvalidAmount, "amount", raw)
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, Reject(ErrInvalidAmount, "amount", raw)
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Reject(ErrInvalidAmount, "amount", raw)
	}
	return d.Round(2), nil
}
