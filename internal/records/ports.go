package records

import (
	"context"

	"despesas/internal/core"
)

// Ports for outbound adapters.
type (
	// Fetcher reads raw expense records for a card.
	Fetcher interface {
		// FetchRecords returns the records of the given year, restricted to
		// one month when month is non-nil. Order is the store's insertion order.
		FetchRecords(ctx context.Context, card core.Card, year int, month *int) ([]core.RawExpenseRecord, error)
	}

	// Writer appends raw expense records for a card.
	Writer interface {
		// AppendRecords stores recs and returns how many were written.
		AppendRecords(ctx context.Context, card core.Card, recs []core.RawExpenseRecord) (int, error)
	}

	// Store is a record backend that can both read and write.
	Store interface {
		Fetcher
		Writer
	}
)

// MonthPtr returns a month selector for FetchRecords.
func MonthPtr(m int) *int { return &m }
