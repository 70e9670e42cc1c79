// Package report derives the dashboard views of one card's expenses: the
// itemized month table, the top categories of the month, the yearly trend
// and the filtered running total.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"despesas/internal/core"
)

// AllCategories is the filter value selecting every category. The empty
// filter means the same.
const AllCategories = "todas"

// DefaultMaxCategories is the size of the category summary.
const DefaultMaxCategories = 10

// Filter selects either every category or one specific category.
type Filter string

// IsAll reports whether f selects every category. Only the exact
// AllCategories sentinel and the empty filter do, so a category spelled
// "Todas" stays selectable.
func (f Filter) IsAll() bool {
	return f == "" || f == AllCategories
}

// Match reports whether item passes the filter.
func (f Filter) Match(item core.LineItem) bool {
	return f.IsAll() || item.Categoria == strings.TrimSpace(string(f))
}

// String returns the canonical form, AllCategories for "all".
func (f Filter) String() string {
	if f.IsAll() {
		return AllCategories
	}
	return strings.TrimSpace(string(f))
}

// Engine computes the derived views. Every method is pure and safe for
// concurrent use.
type Engine struct {
	MaxCategories int
}

// NewEngine returns an engine whose category summary keeps at most
// maxCategories entries. Non-positive values select DefaultMaxCategories.
func NewEngine(maxCategories int) *Engine {
	if maxCategories <= 0 {
		maxCategories = DefaultMaxCategories
	}
	return &Engine{MaxCategories: maxCategories}
}

func (e *Engine) maxCategories() int {
	if e == nil || e.MaxCategories <= 0 {
		return DefaultMaxCategories
	}
	return e.MaxCategories
}

// Table returns the items matching f sorted by amount descending. Ties keep
// their input order. Zero-amount items are kept.
func (e *Engine) Table(items []core.LineItem, f Filter) []core.LineItem {
	out := make([]core.LineItem, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Valor.GreaterThan(out[j].Valor)
	})
	return out
}

// CategoryTotals groups items by category and returns the largest groups,
// at most MaxCategories of them, sorted by sum descending. Ties keep the
// order in which categories were first encountered.
func (e *Engine) CategoryTotals(items []core.LineItem) []core.CategoryTotal {
	index := make(map[string]int)
	totals := []core.CategoryTotal{}
	for _, it := range items {
		i, ok := index[it.Categoria]
		if !ok {
			i = len(totals)
			index[it.Categoria] = i
			totals = append(totals, core.CategoryTotal{Categoria: it.Categoria, Valor: decimal.Zero})
		}
		totals[i].Valor = totals[i].Valor.Add(it.Valor)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Valor.GreaterThan(totals[j].Valor)
	})
	if n := e.maxCategories(); len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// Trend sums the year's items matching f per month. Months without a
// matching item produce no point. Points are ordered by month ascending.
func (e *Engine) Trend(yearItems []core.LineItem, f Filter) []core.TrendPoint {
	var sums [12]decimal.Decimal
	var seen [12]bool
	for _, it := range yearItems {
		if !f.Match(it) || it.Mes < 1 || it.Mes > 12 {
			continue
		}
		i := it.Mes - 1
		if !seen[i] {
			seen[i] = true
			sums[i] = decimal.Zero
		}
		sums[i] = sums[i].Add(it.Valor)
	}

	points := []core.TrendPoint{}
	for i := range sums {
		if !seen[i] {
			continue
		}
		points = append(points, core.TrendPoint{
			Mes:   i + 1,
			Label: core.MonthShortName(i + 1),
			Valor: sums[i],
		})
	}
	return points
}

// RunningTotal sums the amounts of the items matching f.
func (e *Engine) RunningTotal(items []core.LineItem, f Filter) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if f.Match(it) {
			total = total.Add(it.Valor)
		}
	}
	return total
}

// Categories returns the distinct categories of items sorted alphabetically.
func (e *Engine) Categories(items []core.LineItem) []string {
	set := make(map[string]struct{})
	for _, it := range items {
		set[it.Categoria] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Months returns the distinct month numbers present in items, ascending.
func (e *Engine) Months(items []core.LineItem) []int {
	var seen [12]bool
	for _, it := range items {
		if it.Mes >= 1 && it.Mes <= 12 {
			seen[it.Mes-1] = true
		}
	}
	out := []int{}
	for i, ok := range seen {
		if ok {
			out = append(out, i+1)
		}
	}
	return out
}
