package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/records"
)

// Query selects one card and month, plus the category filter.
type Query struct {
	Card     core.Card
	Period   core.Period
	Category Filter
}

// Validate rejects unknown cards and out of range periods.
func (q Query) Validate() error {
	if !q.Card.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCard, q.Card)
	}
	return q.Period.Validate()
}

// SamePeriod reports whether q and o need the same fetched data.
func (q Query) SamePeriod(o Query) bool {
	return q.Card == o.Card && q.Period == o.Period
}

// MonthInfo is one selectable month of a year.
type MonthInfo struct {
	Mes  int    `json:"mes"`
	Nome string `json:"nome"`
}

// Service answers queries against a record fetcher. It keeps no state
// between calls.
type Service struct {
	fetcher records.Fetcher
	engine  *Engine
	logger  *log.Logger
}

// NewService wires a fetcher to an engine. A nil engine uses the default
// category limit and a nil logger uses the default handler.
func NewService(fetcher records.Fetcher, engine *Engine, logger *log.Logger) *Service {
	if engine == nil {
		engine = NewEngine(DefaultMaxCategories)
	}
	if logger == nil {
		logger = log.Default(log.ComponentReport)
	} else {
		logger = logger.WithComponent(log.ComponentReport)
	}
	return &Service{fetcher: fetcher, engine: engine, logger: logger}
}

// Engine returns the engine used to derive views.
func (s *Service) Engine() *Engine { return s.engine }

// Query fetches the month and the full year concurrently and derives every
// view. If either fetch fails the whole query fails with a
// *DataUnavailableError and no partial result.
func (s *Service) Query(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	var monthRaw, yearRaw []core.RawExpenseRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.fetcher.FetchRecords(gctx, q.Card, q.Period.Year, records.MonthPtr(q.Period.Month))
		if err != nil {
			return &DataUnavailableError{Scope: ScopeMonth, Card: q.Card, Period: q.Period, Err: err}
		}
		monthRaw = recs
		return nil
	})
	g.Go(func() error {
		recs, err := s.fetcher.FetchRecords(gctx, q.Card, q.Period.Year, nil)
		if err != nil {
			return &DataUnavailableError{Scope: ScopeYear, Card: q.Card, Period: q.Period, Err: err}
		}
		yearRaw = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Report query failed",
			log.NewFields().
				WithPeriod(q.Card.String(), q.Period.Year, q.Period.Month).
				WithOperation(log.OpQuery).
				WithError(err).
				ToSlice()...)
		return nil, err
	}

	res := newResult(s.engine, q, Normalize(monthRaw), Normalize(yearRaw))

	fields := log.NewFields().
		WithPeriod(q.Card.String(), q.Period.Year, q.Period.Month).
		WithOperation(log.OpQuery).
		ToSlice()
	s.logger.DebugContext(ctx, "Report query completed", append(fields,
		log.FieldRecords, len(monthRaw),
		"year_records", len(yearRaw),
		log.FieldCategory, res.Filter,
		log.FieldDuration, time.Since(start).Milliseconds())...)

	return res, nil
}

// Months lists the months of year that have at least one record for card.
func (s *Service) Months(ctx context.Context, card core.Card, year int) ([]MonthInfo, error) {
	if !card.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}
	if year <= 0 {
		return nil, core.ErrInvalidYear
	}
	raw, err := s.fetcher.FetchRecords(ctx, card, year, nil)
	if err != nil {
		return nil, &DataUnavailableError{Scope: ScopeYear, Card: card, Period: core.Period{Year: year}, Err: err}
	}

	months := s.engine.Months(Normalize(raw))
	out := make([]MonthInfo, len(months))
	for i, m := range months {
		out[i] = MonthInfo{Mes: m, Nome: core.MonthName(m)}
	}
	return out, nil
}
