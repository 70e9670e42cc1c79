// Package importer reads expense exports into raw records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"despesas/internal/core"
)

// Column names expected in the header row. Order does not matter.
const (
	ColDespesa   = "despesa"
	ColCategoria = "categoria"
	ColValor     = "valor"
	ColMes       = "mes"
	ColAno       = "ano"
)

var ErrMissingColumn = errors.New("missing column")

// Header is the canonical header written by exports.
var Header = []string{ColDespesa, ColCategoria, ColValor, ColMes, ColAno}

// ParseCSV reads a despesa,categoria,valor,mes,ano CSV.
//
// Blank categoria and valor cells become absent fields, and so does a
// valor that cannot be read as an amount. A row with an unusable mes or ano
// fails the whole file since the record could not be keyed by period.
func ParseCSV(r io.Reader) ([]core.RawExpenseRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	recs := make([]core.RawExpenseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteCSV writes recs in the format ParseCSV reads.
func WriteCSV(w io.Writer, recs []core.RawExpenseRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range recs {
		categoria, valor := "", ""
		if rec.Categoria != nil {
			categoria = *rec.Categoria
		}
		if rec.Valor != nil {
			valor = strconv.FormatFloat(*rec.Valor, 'f', -1, 64)
		}
		row := []string{rec.Despesa, categoria, valor, strconv.Itoa(rec.Mes), strconv.Itoa(rec.Ano)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	for _, required := range []string{ColDespesa, ColMes, ColAno} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, required)
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (core.RawExpenseRecord, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	mes, err := core.ParseMonthParam(cell(ColMes))
	if err != nil {
		return core.RawExpenseRecord{}, fmt.Errorf("parsing mes %q: %w", cell(ColMes), err)
	}
	ano, err := strconv.Atoi(cell(ColAno))
	if err != nil || ano <= 0 {
		return core.RawExpenseRecord{}, fmt.Errorf("parsing ano %q: %w", cell(ColAno), core.ErrInvalidYear)
	}

	rec := core.RawExpenseRecord{
		Despesa: cell(ColDespesa),
		Mes:     mes,
		Ano:     ano,
	}
	if c := cell(ColCategoria); c != "" {
		rec.Categoria = core.StringPtr(c)
	}
	if v := cell(ColValor); v != "" {
		if d, err := core.ParseDecimal(v); err == nil {
			f, _ := d.Float64()
			rec.Valor = core.FloatPtr(f)
		}
	}
	return rec, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
