package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyShape matches a cell that looks like a monetary token:
// optional parentheses, sign and dollar, digits with comma groups, two decimals.
var moneyShape = regexp.MustCompile(`^\(?-?\$?\d[\d,]*\.\d{2}\)?$`)

// splitDigits finds whitespace between two digits ("1 200.00"), which is
// not treated as a thousands separator.
var splitDigits = regexp.MustCompile(`\d[\s\x{00a0}]+\d`)

// amountStrip removes currency symbols, thousands separators and the spaces
// that may follow a symbol or sign.
var amountStrip = strings.NewReplacer(
	"$", "",
	"£", "",
	"€", "",
	",", "",
	" ", "",
	"\u00a0", "", // non-breaking space
)

// NormalizeAmount converts a token like "$1,200.00", "(45.67)" or "-$3.50"
// into a signed decimal. Parenthesized tokens are negative. The second return
// is false when what remains after stripping is not a plain finite number:
// exponent forms and digits split by spaces are rejected.
func NormalizeAmount(token string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(token)
	if splitDigits.MatchString(s) || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	neg := false
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = amountStrip.Replace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// "-$3.50" becomes "-3.50"; a stray "+" is accepted as well.
	s = strings.TrimPrefix(s, "+")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// IsMoneyShaped reports whether a table cell looks like a monetary token.
// Spaces after a symbol or sign are ignored ("$ 1,200.00"); spaces between
// digits are not.
func IsMoneyShaped(cell string) bool {
	if splitDigits.MatchString(cell) {
		return false
	}
	return moneyShape.MatchString(strings.ReplaceAll(cell, " ", ""))
}
