package report

import (
	"github.com/shopspring/decimal"

	"despesas/internal/core"
)

// Result holds the derived views of one query. Categories and PieTop are
// computed from the unfiltered month; Table, Trend and Total follow Filter.
type Result struct {
	Card           core.Card            `json:"card"`
	Period         core.Period          `json:"period"`
	Filter         string               `json:"categoria"`
	Table          []core.LineItem      `json:"table"`
	Categories     []string             `json:"categories"`
	PieTop         []core.CategoryTotal `json:"pieTop"`
	Trend          []core.TrendPoint    `json:"trend"`
	Total          decimal.Decimal      `json:"total"`
	TotalFormatado string               `json:"totalFormatado"`

	engine     *Engine
	monthItems []core.LineItem
	yearItems  []core.LineItem
}

func newResult(e *Engine, q Query, monthItems, yearItems []core.LineItem) *Result {
	r := &Result{
		Card:       q.Card,
		Period:     q.Period,
		Categories: e.Categories(monthItems),
		PieTop:     e.CategoryTotals(monthItems),
		engine:     e,
		monthItems: monthItems,
		yearItems:  yearItems,
	}
	r.applyFilter(q.Category)
	return r
}

func (r *Result) applyFilter(f Filter) {
	r.Filter = f.String()
	r.Table = r.engine.Table(r.monthItems, f)
	r.Trend = r.engine.Trend(r.yearItems, f)
	r.Total = r.engine.RunningTotal(r.monthItems, f)
	r.TotalFormatado = core.FormatBRL(r.Total)
}

// WithFilter returns a copy of r with the table, trend and total derived
// again for f from the already fetched items. r is left unchanged.
func (r *Result) WithFilter(f Filter) *Result {
	out := *r
	out.applyFilter(f)
	return &out
}

// Query returns the query that r answers.
func (r *Result) Query() Query {
	return Query{Card: r.Card, Period: r.Period, Category: Filter(r.Filter)}
}
