package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"despesas/internal/core"
	"despesas/internal/records"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndFetch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recs := []core.RawExpenseRecord{
		{Despesa: "Uber", Categoria: core.StringPtr("Transporte"), Valor: core.FloatPtr(50), Mes: 3, Ano: 2025},
		{Despesa: "iFood", Mes: 3, Ano: 2025},
		{Despesa: "Mercado", Categoria: core.StringPtr("Alimentação"), Valor: core.FloatPtr(120.35), Mes: 4, Ano: 2025},
		{Despesa: "Antigo", Valor: core.FloatPtr(1), Mes: 3, Ano: 2024},
	}
	n, err := repo.AppendRecords(ctx, core.CardLatam, recs)
	if err != nil || n != len(recs) {
		t.Fatalf("append: n=%d err=%v", n, err)
	}

	march, err := repo.FetchRecords(ctx, core.CardLatam, 2025, records.MonthPtr(3))
	if err != nil {
		t.Fatalf("fetch month: %v", err)
	}
	if len(march) != 2 || march[0].Despesa != "Uber" || march[1].Despesa != "iFood" {
		t.Fatalf("unexpected month records: %+v", march)
	}
	if march[1].Categoria != nil || march[1].Valor != nil {
		t.Fatalf("NULL columns should stay nil: %+v", march[1])
	}
	if *march[0].Valor != 50 || *march[0].Categoria != "Transporte" {
		t.Fatalf("values not preserved: %+v", march[0])
	}

	year, err := repo.FetchRecords(ctx, core.CardLatam, 2025, nil)
	if err != nil {
		t.Fatalf("fetch year: %v", err)
	}
	if len(year) != 3 {
		t.Fatalf("expected 3 records in 2025, got %d", len(year))
	}

	other, err := repo.FetchRecords(ctx, core.CardAzul, 2025, nil)
	if err != nil || len(other) != 0 {
		t.Fatalf("cards must be partitioned: %+v %v", other, err)
	}
}

func TestUnknownCard(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.FetchRecords(context.Background(), core.Card("nubank"), 2025, nil); !errors.Is(err, core.ErrUnknownCard) {
		t.Fatalf("expected ErrUnknownCard, got %v", err)
	}
	if _, err := repo.AppendRecords(context.Background(), core.Card("nubank"), []core.RawExpenseRecord{{Mes: 1, Ano: 2025}}); !errors.Is(err, core.ErrUnknownCard) {
		t.Fatalf("expected ErrUnknownCard, got %v", err)
	}
}

func TestAppendRejectsBadMonthAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.AppendRecords(ctx, core.CardAzul, []core.RawExpenseRecord{
		{Despesa: "ok", Mes: 1, Ano: 2025},
		{Despesa: "bad", Mes: 13, Ano: 2025},
	})
	if err == nil {
		t.Fatalf("expected check constraint failure")
	}
	got, err := repo.FetchRecords(ctx, core.CardAzul, 2025, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("failed batch must not be partially stored: %+v %v", got, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}
