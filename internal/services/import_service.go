package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/importer"
	"despesas/internal/records"
)

// DefaultBatchSize bounds the records carried by one published message.
const DefaultBatchSize = 500

var (
	ErrNoPublisher = errors.New("no message publisher configured")
	ErrNoStore     = errors.New("no record store configured")
)

// Publisher sends record batches to the ingestion queue.
type Publisher interface {
	PublishRecordBatch(ctx context.Context, msg *amqp.RecordBatchMessage) error
}

// ImportResult summarizes one import.
type ImportResult struct {
	Card      core.Card
	Parsed    int
	Written   int
	Batches   int
	Published bool
}

// ImportService loads CSV exports either straight into a store or through
// the ingestion queue, where cmd/despesas-worker appends them.
type ImportService struct {
	store     records.Writer
	publisher Publisher
	batchSize int
}

// NewImportService accepts a nil store or a nil publisher; the matching
// import mode then fails with ErrNoStore or ErrNoPublisher.
func NewImportService(store records.Writer, publisher Publisher) *ImportService {
	return &ImportService{
		store:     store,
		publisher: publisher,
		batchSize: DefaultBatchSize,
	}
}

// ImportCSV parses r and either appends the records to the store or, when
// publish is set, queues them in batches. source names the input in logs
// and messages.
func (s *ImportService) ImportCSV(ctx context.Context, card core.Card, source string, r io.Reader, publish bool) (ImportResult, error) {
	res := ImportResult{Card: card}
	if !card.IsValid() {
		return res, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}

	recs, err := importer.ParseCSV(r)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", source, err)
	}
	res.Parsed = len(recs)
	if len(recs) == 0 {
		slog.WarnContext(ctx, "Import file has no records", "source", source, "card", card)
		return res, nil
	}

	if publish {
		return s.publish(ctx, res, source, recs)
	}
	if s.store == nil {
		return res, ErrNoStore
	}
	n, err := s.store.AppendRecords(ctx, card, recs)
	res.Written = n
	if err != nil {
		return res, fmt.Errorf("append records: %w", err)
	}
	slog.InfoContext(ctx, "Records imported", "source", source, "card", card, "records", n)
	return res, nil
}

func (s *ImportService) publish(ctx context.Context, res ImportResult, source string, recs []core.RawExpenseRecord) (ImportResult, error) {
	if s.publisher == nil {
		return res, ErrNoPublisher
	}
	for start := 0; start < len(recs); start += s.batchSize {
		end := min(start+s.batchSize, len(recs))
		msg := amqp.NewRecordBatchMessage(res.Card, recs[start:end], source)
		if err := s.publisher.PublishRecordBatch(ctx, msg); err != nil {
			return res, fmt.Errorf("publish batch %d (records %d-%d): %w", res.Batches+1, start+1, end, err)
		}
		res.Batches++
		slog.DebugContext(ctx, "Record batch published", "id", msg.ID, "card", res.Card, "records", end-start)
	}
	res.Published = true
	slog.InfoContext(ctx, "Records queued for ingestion", "source", source, "card", res.Card,
		"records", len(recs), "batches", res.Batches)
	return res, nil
}
