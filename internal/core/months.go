package core

import (
	"strconv"
	"strings"
	"time"
)

// FirstYear is the first year with recorded expenses.
const FirstYear = 2024

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var monthShortNames = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// MonthName returns the full display name for month n (1-12), or "" when n
// is out of range.
func MonthName(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return monthNames[n-1]
}

// MonthShortName returns the three-letter label used on trend axes, or ""
// when n is out of range.
func MonthShortName(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return monthShortNames[n-1]
}

// MonthNumber is the lenient inverse of MonthName: an unrecognized name
// yields 1 (January). Use ParseMonth when the input must be validated.
func MonthNumber(name string) int {
	n, err := ParseMonth(name)
	if err != nil {
		return 1
	}
	return n
}

// ParseMonth is the strict inverse of MonthName. Matching ignores case and
// surrounding whitespace.
func ParseMonth(name string) (int, error) {
	name = strings.TrimSpace(name)
	for i, m := range monthNames {
		if strings.EqualFold(m, name) {
			return i + 1, nil
		}
	}
	return 0, ErrInvalidMonth
}

// ParseMonthParam reads a month given either as a number ("3") or as a
// display name ("Março").
func ParseMonthParam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, ErrInvalidMonth
		}
		return n, nil
	}
	return ParseMonth(s)
}

// AvailableYears lists the selectable years, FirstYear through now's year.
func AvailableYears(now time.Time) []int {
	last := now.Year()
	if last < FirstYear {
		return nil
	}
	years := make([]int, 0, last-FirstYear+1)
	for y := FirstYear; y <= last; y++ {
		years = append(years, y)
	}
	return years
}
