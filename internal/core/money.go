// Package core provides money parsing and formatting utilities.
//
// Amounts are held as decimal.Decimal in major units (reais). Display text
// follows the pt-BR convention: "R$1.234,56", "-R$10,00".
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single currency all amounts are expressed in.
const Currency = money.BRL

// Amounts reach JSON consumers as numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatBRL renders an amount as Brazilian real text with exactly two
// fractional digits and grouping separators.
//
// Rounding is half away from zero on the third decimal place:
//
//	FormatBRL(decimal.RequireFromString("1234.5"))  -> "R$1.234,50"
//	FormatBRL(decimal.RequireFromString("-0.005"))  -> "-R$0,01"
func FormatBRL(d decimal.Decimal) string {
	return money.New(ToCents(d), Currency).Display()
}

// ParseBRL is the inverse of FormatBRL. Text that cannot be read as an
// amount yields zero rather than an error.
func ParseBRL(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDecimal converts amount text to a decimal.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, grouped
// values in either convention (1.234,56 and 1,234.56), an optional sign and
// an optional "R$" symbol. Returns ErrInvalidAmount for anything else.
func ParseDecimal(s string) (decimal.Decimal, error) {
	num, err := normalizeAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// DecimalFromFloat converts a stored float amount. NaN and infinities map
// to zero.
func DecimalFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// ToCents rounds an amount to minor units.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// normalizeAmount reduces amount text to the canonical "-1234.56" form.
func normalizeAmount(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "R$", "")

	var b strings.Builder
	neg, signSeen, digitSeen := false, false, false
	for _, r := range s {
		switch {
		case r == '-' || r == '+':
			if signSeen || digitSeen {
				return "", ErrInvalidAmount
			}
			signSeen = true
			neg = r == '-'
		case r >= '0' && r <= '9':
			digitSeen = true
			b.WriteRune(r)
		case r == ',' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			// "R$ 10,00" and the NBSP variant
		default:
			return "", ErrInvalidAmount
		}
	}
	if !digitSeen {
		return "", ErrInvalidAmount
	}

	num := b.String()
	lastComma := strings.LastIndex(num, ",")
	lastDot := strings.LastIndex(num, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastComma >= 0:
		num = strings.Replace(num, ",", ".", 1)
	case strings.Count(num, ".") > 1:
		num = strings.ReplaceAll(num, ".", "")
	}
	if strings.ContainsRune(num, ',') || strings.Count(num, ".") > 1 {
		return "", ErrInvalidAmount
	}

	if neg {
		num = "-" + num
	}
	return num, nil
}
