package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"despesas/internal/core"
)

// parseRecords converts a card tab (as returned by the Sheets API) into raw
// records of the given year and, when month is set, that month. The first
// row must be the header; columns may appear in any order. Rows whose mes
// or ano cannot be read are counted in skipped.
func parseRecords(values [][]interface{}, year int, month *int) (out []core.RawExpenseRecord, skipped int) {
	if len(values) == 0 {
		return nil, 0
	}
	headers := toStrings(values[0])
	colDespesa := indexOf(headers, "despesa")
	colCategoria := indexOf(headers, "categoria")
	colValor := indexOf(headers, "valor")
	colMes := indexOf(headers, "mes")
	colAno := indexOf(headers, "ano")
	if colMes == -1 || colAno == -1 {
		return nil, len(values) - 1
	}

	for i := 1; i < len(values); i++ {
		row := values[i]
		if len(row) == 0 {
			continue
		}
		mes, ok := cellInt(safeGet(row, colMes))
		if !ok {
			if m, err := core.ParseMonthParam(cellString(safeGet(row, colMes))); err == nil {
				mes, ok = m, true
			}
		}
		ano, okAno := cellInt(safeGet(row, colAno))
		if !ok || !okAno {
			skipped++
			continue
		}
		if ano != year || (month != nil && mes != *month) {
			continue
		}

		rec := core.RawExpenseRecord{
			Despesa: strings.TrimSpace(cellString(safeGet(row, colDespesa))),
			Mes:     mes,
			Ano:     ano,
		}
		if c := strings.TrimSpace(cellString(safeGet(row, colCategoria))); c != "" {
			rec.Categoria = &c
		}
		if v, ok := cellFloat(safeGet(row, colValor)); ok {
			rec.Valor = &v
		}
		out = append(out, rec)
	}
	return out, skipped
}

// formatRows renders records as sheet rows in Header order. Absent values
// become empty cells.
func formatRows(recs []core.RawExpenseRecord) [][]interface{} {
	rows := make([][]interface{}, len(recs))
	for i, r := range recs {
		var categoria, valor interface{} = "", ""
		if r.Categoria != nil {
			categoria = *r.Categoria
		}
		if r.Valor != nil {
			valor = *r.Valor
		}
		rows[i] = []interface{}{r.Despesa, categoria, valor, r.Mes, r.Ano}
	}
	return rows
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// cellFloat reads numeric cells and BRL or plain amount text.
func cellFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case int:
		return float64(x), true
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, false
		}
		d, err := core.ParseDecimal(x)
		if err != nil {
			return 0, false
		}
		f, _ := d.Float64()
		return f, true
	default:
		return 0, false
	}
}

func cellInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(row []interface{}, idx int) interface{} {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
