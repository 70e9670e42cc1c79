package report

import (
	"strconv"
	"strings"

	"despesas/internal/core"
)

// Normalize converts raw records into line items, one per input, in input
// order. Missing categories become core.FallbackCategory and missing or
// non-finite amounts become zero. IDs are the input positions and are only
// stable within a single result. Mes is kept as stored; months outside
// 1..12 are skipped by the month list and the trend.
func Normalize(raw []core.RawExpenseRecord) []core.LineItem {
	items := make([]core.LineItem, len(raw))
	for i, r := range raw {
		items[i] = normalizeOne(i, r)
	}
	return items
}

func normalizeOne(i int, r core.RawExpenseRecord) core.LineItem {
	categoria := core.FallbackCategory
	if r.Categoria != nil {
		if c := strings.TrimSpace(*r.Categoria); c != "" {
			categoria = c
		}
	}

	valor := core.DecimalFromFloat(0)
	if r.Valor != nil {
		valor = core.DecimalFromFloat(*r.Valor)
	}

	return core.LineItem{
		ID:             strconv.Itoa(i),
		Despesa:        r.Despesa,
		Categoria:      categoria,
		Valor:          valor,
		ValorFormatado: core.FormatBRL(valor),
		Mes:            r.Mes,
		Ano:            r.Ano,
	}
}
