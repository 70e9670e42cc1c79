package google

import (
	"testing"

	"despesas/internal/core"
	"despesas/internal/records"
)

func sampleSheet() [][]interface{} {
	return [][]interface{}{
		{"Despesa", "Categoria", "Valor", "Mes", "Ano"},
		{"Uber", "Transporte", 50.0, 3.0, 2025.0},
		{"iFood", "", "R$ 30,50", "3", "2025"},
		{"Cinema", "Lazer", nil, "Março", 2025.0},
		{"Mercado", "Alimentação", 1234.56, 4.0, 2025.0},
		{"Antigo", "Outros", 10.0, 3.0, 2024.0},
		{"Quebrado", "Outros", 10.0, "x", 2025.0},
		{},
	}
}

func TestParseRecordsMonth(t *testing.T) {
	recs, skipped := parseRecords(sampleSheet(), 2025, records.MonthPtr(3))
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %+v", recs)
	}

	uber := recs[0]
	if uber.Despesa != "Uber" || *uber.Categoria != "Transporte" || *uber.Valor != 50 || uber.Mes != 3 || uber.Ano != 2025 {
		t.Fatalf("unexpected first record: %+v", uber)
	}
	ifood := recs[1]
	if ifood.Categoria != nil {
		t.Fatalf("blank category should be nil, got %q", *ifood.Categoria)
	}
	if ifood.Valor == nil || *ifood.Valor != 30.5 {
		t.Fatalf("BRL text not parsed: %+v", ifood.Valor)
	}
	if recs[2].Valor != nil || recs[2].Mes != 3 {
		t.Fatalf("month name or empty value mishandled: %+v", recs[2])
	}
}

func TestParseRecordsYear(t *testing.T) {
	recs, _ := parseRecords(sampleSheet(), 2025, nil)
	if len(recs) != 4 {
		t.Fatalf("expected 4 records for 2025, got %d", len(recs))
	}
}

func TestParseRecordsMissingHeader(t *testing.T) {
	recs, skipped := parseRecords([][]interface{}{{"despesa", "valor"}, {"a", 1.0}}, 2025, nil)
	if recs != nil || skipped != 1 {
		t.Fatalf("expected everything skipped: %+v %d", recs, skipped)
	}
	if recs, skipped := parseRecords(nil, 2025, nil); recs != nil || skipped != 0 {
		t.Fatalf("empty sheet: %+v %d", recs, skipped)
	}
}

func TestFormatRows(t *testing.T) {
	rows := formatRows([]core.RawExpenseRecord{
		{Despesa: "Uber", Categoria: core.StringPtr("Transporte"), Valor: core.FloatPtr(50), Mes: 3, Ano: 2025},
		{Despesa: "iFood", Mes: 3, Ano: 2025},
	})
	if len(rows) != 2 || len(rows[0]) != len(Header) {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[1][1] != "" || rows[1][2] != "" {
		t.Fatalf("absent values should be empty cells: %+v", rows[1])
	}
	back, _ := parseRecords(append([][]interface{}{{"despesa", "categoria", "valor", "mes", "ano"}}, rows...), 2025, nil)
	if len(back) != 2 || *back[0].Valor != 50 || back[1].Valor != nil {
		t.Fatalf("rows do not read back: %+v", back)
	}
}
