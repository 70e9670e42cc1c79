package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// FallbackCategory labels records that arrive without a category.
const FallbackCategory = "Outros"

type (
	// RawExpenseRecord is one row as stored for a card. Categoria and Valor
	// may be absent in the source, which is why they are pointers.
	RawExpenseRecord struct {
		Despesa   string   `json:"despesa"`
		Categoria *string  `json:"categoria"`
		Valor     *float64 `json:"valor"`
		Mes       int      `json:"mes"`
		Ano       int      `json:"ano"`
	}

	// LineItem is the canonical, normalized form of a RawExpenseRecord.
	// It is never mutated after creation.
	LineItem struct {
		ID             string          `json:"id"`
		Despesa        string          `json:"despesa"`
		Categoria      string          `json:"categoria"`
		Valor          decimal.Decimal `json:"valorNumerico"`
		ValorFormatado string          `json:"valorFormatado"`
		Mes            int             `json:"mes"`
		Ano            int             `json:"ano"`
	}

	// CategoryTotal is the summed amount for one category within a period.
	CategoryTotal struct {
		Categoria string          `json:"categoria"`
		Valor     decimal.Decimal `json:"valor"`
	}

	// TrendPoint is the summed amount for one month of a year.
	TrendPoint struct {
		Mes   int             `json:"mes"`
		Label string          `json:"label"`
		Valor decimal.Decimal `json:"valor"`
	}

	// Period identifies one reporting month.
	Period struct {
		Year  int `json:"ano"`
		Month int `json:"mes"`
	}
)

var (
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnknownCard   = errors.New("unknown card")
)

// Validate checks the month range and that a year is set.
func (p Period) Validate() error {
	if p.Year <= 0 {
		return ErrInvalidYear
	}
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// String returns the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label returns the display name, e.g. "Março de 2025".
func (p Period) Label() string {
	return fmt.Sprintf("%s de %d", MonthName(p.Month), p.Year)
}

// StringPtr and FloatPtr help build RawExpenseRecord literals.
func StringPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }
