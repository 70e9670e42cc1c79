package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"despesas/internal/core"
	"despesas/internal/importer"
	"despesas/internal/records"
)

var _ records.Store = (*Store)(nil)

// Store keeps records per card in insertion order.
type Store struct {
	mu    sync.Mutex
	items map[core.Card][]core.RawExpenseRecord
}

func New() *Store {
	return &Store{items: make(map[core.Card][]core.RawExpenseRecord)}
}

// NewFromFiles seeds the store from <base>/dados_<card>.csv. Missing files
// leave that card empty; unreadable files are logged and skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, card := range core.Cards() {
		path := filepath.Join(base, card.Table()+".csv")
		recs, err := readFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("Skipping seed file", "path", path, "error", err)
			}
			continue
		}
		s.items[card] = recs
	}
	return s
}

// FetchRecords returns the year's records, optionally restricted to one month.
func (s *Store) FetchRecords(_ context.Context, card core.Card, year int, month *int) ([]core.RawExpenseRecord, error) {
	if !card.IsValid() {
		return nil, core.ErrUnknownCard
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.RawExpenseRecord
	for _, rec := range s.items[card] {
		if rec.Ano != year {
			continue
		}
		if month != nil && rec.Mes != *month {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// AppendRecords stores copies of recs.
func (s *Store) AppendRecords(_ context.Context, card core.Card, recs []core.RawExpenseRecord) (int, error) {
	if !card.IsValid() {
		return 0, core.ErrUnknownCard
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[card] = append(s.items[card], recs...)
	return len(recs), nil
}

func readFile(path string) ([]core.RawExpenseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := importer.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, nil
}
