// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// into exact decimals. Amounts are never represented as floats.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an exact decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading minus sign. Exponents, grouping separators and anything
// that is not a plain decimal number are rejected.
//
// Examples:
//
//	ParseAmount("580000")  -> 580000, nil
//	ParseAmount("12,34")   -> 12.34, nil
//	ParseAmount("1e3")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	digits := strings.TrimPrefix(s, "-")
	parts := strings.Split(digits, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// maxAmountExponent bounds the scale of exponent-form amounts so a tiny
// request cannot expand into a huge number.
const maxAmountExponent = 64

// ParseJSONAmount converts a JSON number literal, exponent form included, to
// an exact decimal amount.
//
//	ParseJSONAmount("5.8e5")  -> 580000, nil
//	ParseJSONAmount("1e999")  -> 0, ErrInvalidAmount
func ParseJSONAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount without trailing zeros after the point.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
