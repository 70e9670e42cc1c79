package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"despesas/internal/core"
)

type fakeFetcher struct {
	mu      sync.Mutex
	records map[core.Card][]core.RawExpenseRecord
	calls   int
	failOn  func(year int, month *int) error
	// gate, when set, blocks fetches for that month until closed
	gate    map[int]chan struct{}
	started chan int
}

func (f *fakeFetcher) FetchRecords(ctx context.Context, card core.Card, year int, month *int) ([]core.RawExpenseRecord, error) {
	f.mu.Lock()
	f.calls++
	var gate chan struct{}
	if month != nil && f.gate != nil {
		gate = f.gate[*month]
	}
	f.mu.Unlock()

	if gate != nil {
		if f.started != nil {
			f.started <- *month
		}
		<-gate
	}
	if f.failOn != nil {
		if err := f.failOn(year, month); err != nil {
			return nil, err
		}
	}

	var out []core.RawExpenseRecord
	for _, r := range f.records[card] {
		if r.Ano == year && (month == nil || r.Mes == *month) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func rec(despesa string, categoria *string, valor *float64, mes, ano int) core.RawExpenseRecord {
	return core.RawExpenseRecord{Despesa: despesa, Categoria: categoria, Valor: valor, Mes: mes, Ano: ano}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uberIfood() []core.RawExpenseRecord {
	return []core.RawExpenseRecord{
		rec("iFood", nil, core.FloatPtr(30), 3, 2025),
		rec("Uber", core.StringPtr("Transporte"), core.FloatPtr(50), 3, 2025),
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := []core.RawExpenseRecord{
		rec("Uber", core.StringPtr("Transporte"), core.FloatPtr(50), 3, 2025),
		rec("iFood", nil, nil, 3, 2025),
		rec("", core.StringPtr("   "), core.FloatPtr(math.Inf(1)), 13, 2025),
		rec("Estorno", core.StringPtr(" Compras "), core.FloatPtr(-12.5), 0, 2025),
	}
	items := Normalize(raw)
	if len(items) != len(raw) {
		t.Fatalf("expected %d items, got %d", len(raw), len(items))
	}

	cases := []struct {
		id, despesa, categoria, valor string
		mes                           int
	}{
		{"0", "Uber", "Transporte", "50", 3},
		{"1", "iFood", core.FallbackCategory, "0", 3},
		{"2", "", core.FallbackCategory, "0", 13},
		{"3", "Estorno", "Compras", "-12.5", 0},
	}
	for i, c := range cases {
		it := items[i]
		if it.ID != c.id || it.Despesa != c.despesa || it.Categoria != c.categoria || it.Mes != c.mes {
			t.Errorf("item %d = %+v, want %+v", i, it, c)
		}
		if !it.Valor.Equal(dec(c.valor)) {
			t.Errorf("item %d valor = %s, want %s", i, it.Valor, c.valor)
		}
		if it.ValorFormatado != core.FormatBRL(dec(c.valor)) {
			t.Errorf("item %d formatted = %q", i, it.ValorFormatado)
		}
	}
}

func TestEngineTableSortedAndStable(t *testing.T) {
	e := NewEngine(0)
	items := Normalize([]core.RawExpenseRecord{
		rec("a", core.StringPtr("X"), core.FloatPtr(5), 1, 2025),
		rec("b", core.StringPtr("Y"), core.FloatPtr(20), 1, 2025),
		rec("c", core.StringPtr("X"), core.FloatPtr(5), 1, 2025),
		rec("d", core.StringPtr("Y"), core.FloatPtr(0), 1, 2025),
	})

	got := e.Table(items, AllCategories)
	want := []string{"b", "a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("table len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Despesa != w {
			t.Fatalf("table[%d] = %s, want %s", i, got[i].Despesa, w)
		}
	}

	if got := e.Table(nil, ""); got == nil || len(got) != 0 {
		t.Fatalf("empty period should give an empty, non-nil table: %#v", got)
	}
}

func TestEngineCategoryTotalsTopN(t *testing.T) {
	var raw []core.RawExpenseRecord
	for i := 0; i < 12; i++ {
		raw = append(raw, rec("x", core.StringPtr(fmt.Sprintf("cat%02d", i)), core.FloatPtr(10), 4, 2025))
	}
	totals := NewEngine(DefaultMaxCategories).CategoryTotals(Normalize(raw))
	if len(totals) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(totals))
	}
	for i, ct := range totals {
		if want := fmt.Sprintf("cat%02d", i); ct.Categoria != want {
			t.Fatalf("totals[%d] = %s, want %s", i, ct.Categoria, want)
		}
	}

	few := NewEngine(10).CategoryTotals(Normalize(uberIfood()))
	if len(few) != 2 || few[0].Categoria != "Transporte" || !few[0].Valor.Equal(dec("50")) {
		t.Fatalf("unexpected totals: %+v", few)
	}

	capped := NewEngine(1).CategoryTotals(Normalize(uberIfood()))
	if len(capped) != 1 || capped[0].Categoria != "Transporte" {
		t.Fatalf("max categories not honoured: %+v", capped)
	}
}

func TestEngineTrendSparse(t *testing.T) {
	items := Normalize([]core.RawExpenseRecord{
		rec("a", core.StringPtr("X"), core.FloatPtr(10), 1, 2025),
		rec("b", core.StringPtr("Y"), core.FloatPtr(20), 1, 2025),
		rec("c", core.StringPtr("X"), core.FloatPtr(5), 3, 2025),
	})
	e := NewEngine(0)

	trend := e.Trend(items, "")
	if len(trend) != 2 {
		t.Fatalf("expected 2 points, got %+v", trend)
	}
	if trend[0].Mes != 1 || !trend[0].Valor.Equal(dec("30")) || trend[0].Label != "Jan" {
		t.Fatalf("point 0 = %+v", trend[0])
	}
	if trend[1].Mes != 3 || !trend[1].Valor.Equal(dec("5")) || trend[1].Label != "Mar" {
		t.Fatalf("point 1 = %+v", trend[1])
	}

	onlyY := e.Trend(items, "Y")
	if len(onlyY) != 1 || onlyY[0].Mes != 1 || !onlyY[0].Valor.Equal(dec("20")) {
		t.Fatalf("filtered trend = %+v", onlyY)
	}
}

func TestEngineRunningTotalMatchesTable(t *testing.T) {
	items := Normalize([]core.RawExpenseRecord{
		rec("a", core.StringPtr("X"), core.FloatPtr(10.10), 2, 2025),
		rec("b", core.StringPtr("Y"), core.FloatPtr(0.20), 2, 2025),
		rec("c", nil, core.FloatPtr(-3.05), 2, 2025),
		rec("d", core.StringPtr("X"), nil, 2, 2025),
	})
	e := NewEngine(0)

	filters := []Filter{"", AllCategories, "X", "Y", core.FallbackCategory, "missing"}
	for _, f := range filters {
		sum := decimal.Zero
		for _, it := range e.Table(items, f) {
			sum = sum.Add(it.Valor)
		}
		if got := e.RunningTotal(items, f); !got.Equal(sum) {
			t.Errorf("filter %q: total %s != table sum %s", f, got, sum)
		}
	}

	all := e.RunningTotal(items, AllCategories)
	if !all.Equal(dec("7.25")) {
		t.Fatalf("total = %s, want 7.25", all)
	}
	pieSum := decimal.Zero
	for _, ct := range e.CategoryTotals(items) {
		pieSum = pieSum.Add(ct.Valor)
	}
	if !pieSum.Equal(all) {
		t.Fatalf("category sum %s != total %s", pieSum, all)
	}
}

func TestFilter(t *testing.T) {
	item := core.LineItem{Categoria: "Transporte"}
	cases := []struct {
		f     Filter
		all   bool
		match bool
	}{
		{"", true, true},
		{"todas", true, true},
		{"TODAS", false, false},
		{" todas ", false, false},
		{"Transporte", false, true},
		{" Transporte ", false, true},
		{"transporte", false, false},
		{"Lazer", false, false},
	}
	for _, c := range cases {
		if c.f.IsAll() != c.all || c.f.Match(item) != c.match {
			t.Errorf("filter %q: all=%v match=%v", c.f, c.f.IsAll(), c.f.Match(item))
		}
	}
}

func TestEngineCategoryNamedTodas(t *testing.T) {
	items := Normalize([]core.RawExpenseRecord{
		rec("a", core.StringPtr("Todas"), core.FloatPtr(10), 4, 2025),
		rec("b", core.StringPtr("X"), core.FloatPtr(0.1), 4, 2025),
		rec("c", core.StringPtr("X"), core.FloatPtr(0.2), 4, 2025),
	})
	e := NewEngine(0)

	table := e.Table(items, "Todas")
	if len(table) != 1 || table[0].Despesa != "a" {
		t.Fatalf("table for category Todas = %+v", table)
	}
	if got := e.RunningTotal(items, "Todas"); !got.Equal(dec("10")) {
		t.Fatalf("total = %s, want 10", got)
	}
	if trend := e.Trend(items, "Todas"); len(trend) != 1 || !trend[0].Valor.Equal(dec("10")) {
		t.Fatalf("trend = %+v", trend)
	}
	if len(e.Table(items, AllCategories)) != 3 {
		t.Fatal("sentinel should still select every item")
	}
}

func TestEngineSkipsOutOfRangeMonths(t *testing.T) {
	items := Normalize([]core.RawExpenseRecord{
		rec("a", core.StringPtr("X"), core.FloatPtr(5), 3, 2025),
		rec("b", core.StringPtr("X"), core.FloatPtr(0.3), 13, 2025),
		rec("c", core.StringPtr("X"), core.FloatPtr(1), 0, 2025),
	})
	e := NewEngine(0)

	if months := e.Months(items); len(months) != 1 || months[0] != 3 {
		t.Fatalf("months = %v, want [3]", months)
	}
	trend := e.Trend(items, "")
	if len(trend) != 1 || trend[0].Mes != 3 || !trend[0].Valor.Equal(dec("5")) {
		t.Fatalf("trend = %+v", trend)
	}
}

func TestServiceQueryScenario(t *testing.T) {
	f := &fakeFetcher{records: map[core.Card][]core.RawExpenseRecord{
		core.CardLatam: append(uberIfood(), rec("Mercado", core.StringPtr("Alimentação"), core.FloatPtr(100), 2, 2025)),
	}}
	svc := NewService(f, nil, nil)

	res, err := svc.Query(context.Background(), Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 3}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Table) != 2 || res.Table[0].Despesa != "Uber" || res.Table[1].Despesa != "iFood" {
		t.Fatalf("unexpected table: %+v", res.Table)
	}
	if res.Table[1].Categoria != core.FallbackCategory {
		t.Fatalf("missing category not defaulted: %+v", res.Table[1])
	}
	if !res.Total.Equal(dec("80")) || res.TotalFormatado != core.FormatBRL(dec("80")) {
		t.Fatalf("total = %s (%s)", res.Total, res.TotalFormatado)
	}
	if len(res.Trend) != 2 || res.Trend[0].Mes != 2 || res.Trend[1].Mes != 3 {
		t.Fatalf("trend = %+v", res.Trend)
	}
	if res.Filter != AllCategories {
		t.Fatalf("filter = %q", res.Filter)
	}

	calls := f.Calls()
	filtered := res.WithFilter("Transporte")
	if f.Calls() != calls {
		t.Fatalf("filter change must not fetch")
	}
	if len(filtered.Table) != 1 || filtered.Table[0].Despesa != "Uber" || !filtered.Total.Equal(dec("50")) {
		t.Fatalf("filtered = %+v total %s", filtered.Table, filtered.Total)
	}
	if want := []string{"Outros", "Transporte"}; len(filtered.Categories) != 2 ||
		filtered.Categories[0] != want[0] || filtered.Categories[1] != want[1] {
		t.Fatalf("categories = %v, want %v", filtered.Categories, want)
	}
	if len(filtered.PieTop) != 2 {
		t.Fatalf("pie should stay unfiltered: %+v", filtered.PieTop)
	}
	if len(filtered.Trend) != 1 || filtered.Trend[0].Mes != 3 {
		t.Fatalf("filtered trend = %+v", filtered.Trend)
	}
	if len(res.Table) != 2 {
		t.Fatalf("WithFilter mutated the original result")
	}
}

func TestServiceQueryDataUnavailable(t *testing.T) {
	boom := errors.New("sheet offline")
	for _, scope := range []string{ScopeMonth, ScopeYear} {
		t.Run(scope, func(t *testing.T) {
			f := &fakeFetcher{failOn: func(_ int, month *int) error {
				if (month != nil) == (scope == ScopeMonth) {
					return boom
				}
				return nil
			}}
			res, err := NewService(f, nil, nil).Query(context.Background(),
				Query{Card: core.CardAzul, Period: core.Period{Year: 2025, Month: 1}})
			if res != nil {
				t.Fatalf("no partial result expected, got %+v", res)
			}
			if !errors.Is(err, ErrDataUnavailable) || !errors.Is(err, boom) {
				t.Fatalf("unexpected error: %v", err)
			}
			var due *DataUnavailableError
			if !errors.As(err, &due) || due.Scope != scope {
				t.Fatalf("expected scope %s, got %v", scope, err)
			}
		})
	}
}

func TestServiceQueryValidation(t *testing.T) {
	svc := NewService(&fakeFetcher{}, nil, nil)
	if _, err := svc.Query(context.Background(), Query{Card: "nubank", Period: core.Period{Year: 2025, Month: 1}}); !errors.Is(err, core.ErrUnknownCard) {
		t.Fatalf("expected unknown card, got %v", err)
	}
	if _, err := svc.Query(context.Background(), Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 13}}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
}

func TestServiceMonths(t *testing.T) {
	f := &fakeFetcher{records: map[core.Card][]core.RawExpenseRecord{
		core.CardLatam: {
			rec("a", nil, nil, 5, 2025),
			rec("b", nil, nil, 2, 2025),
			rec("c", nil, nil, 5, 2025),
			rec("d", nil, nil, 7, 2024),
		},
	}}
	months, err := NewService(f, nil, nil).Months(context.Background(), core.CardLatam, 2025)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if len(months) != 2 || months[0] != (MonthInfo{2, "Fevereiro"}) || months[1] != (MonthInfo{5, "Maio"}) {
		t.Fatalf("months = %+v", months)
	}
}

func TestSessionDropsStaleResult(t *testing.T) {
	f := &fakeFetcher{
		records: map[core.Card][]core.RawExpenseRecord{core.CardLatam: uberIfood()},
		gate:    map[int]chan struct{}{1: make(chan struct{})},
		started: make(chan int, 1),
	}
	s := NewSession(NewService(f, nil, nil))

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := s.Query(context.Background(), Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 1}})
		first <- outcome{res, err}
	}()
	<-f.started

	res, err := s.Query(context.Background(), Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 3}})
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	close(f.gate[1])

	out := <-first
	if !errors.Is(out.err, ErrStaleResult) || out.res != nil {
		t.Fatalf("first query should be stale, got %+v %v", out.res, out.err)
	}
	if s.Ready() != res || s.Ready().Period.Month != 3 {
		t.Fatalf("ready result is not the latest query")
	}
}

func TestSessionFilterWithoutFetch(t *testing.T) {
	f := &fakeFetcher{records: map[core.Card][]core.RawExpenseRecord{core.CardLatam: uberIfood()}}
	s := NewSession(NewService(f, nil, nil))
	ctx := context.Background()

	if _, err := s.Filter("Transporte"); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult before any query, got %v", err)
	}

	q := Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 3}}
	if _, err := s.Query(ctx, q); err != nil {
		t.Fatalf("query: %v", err)
	}
	calls := f.Calls()

	q.Category = "Transporte"
	res, err := s.Apply(ctx, q)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if f.Calls() != calls {
		t.Fatalf("filter-only change fetched again")
	}
	if !res.Total.Equal(dec("50")) || res.Filter != "Transporte" {
		t.Fatalf("filtered result = %+v", res)
	}

	q.Period.Month = 4
	if _, err := s.Apply(ctx, q); err != nil {
		t.Fatalf("apply new period: %v", err)
	}
	if f.Calls() != calls+2 {
		t.Fatalf("period change should fetch month and year, calls = %d", f.Calls()-calls)
	}
}

func TestSessionFailureClearsReady(t *testing.T) {
	fail := false
	f := &fakeFetcher{
		records: map[core.Card][]core.RawExpenseRecord{core.CardLatam: uberIfood()},
		failOn: func(int, *int) error {
			if fail {
				return errors.New("down")
			}
			return nil
		},
	}
	s := NewSession(NewService(f, nil, nil))
	q := Query{Card: core.CardLatam, Period: core.Period{Year: 2025, Month: 3}}
	if _, err := s.Query(context.Background(), q); err != nil {
		t.Fatalf("query: %v", err)
	}
	fail = true
	q.Period.Month = 4
	if _, err := s.Query(context.Background(), q); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
	if s.Ready() != nil {
		t.Fatalf("ready result should be cleared after a failure")
	}
}
