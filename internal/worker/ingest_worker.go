package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/records"
)

// Consumer delivers record batches to a handler until its context ends.
type Consumer interface {
	ConsumeRecordBatches(ctx context.Context, handler amqp.BatchHandler) error
}

// IngestWorker appends consumed record batches to the configured store
type IngestWorker struct {
	store records.Writer
}

func NewIngestWorker(store records.Writer) *IngestWorker {
	return &IngestWorker{store: store}
}

// HandleBatch writes one batch. Store failures are returned so the message
// is requeued; batches the store can never accept are marked malformed.
func (w *IngestWorker) HandleBatch(ctx context.Context, msg *amqp.RecordBatchMessage) error {
	slog.InfoContext(ctx, "Processing record batch",
		"id", msg.ID,
		"card", msg.Card,
		"records", len(msg.Records),
		"source", msg.Source)

	n, err := w.store.AppendRecords(ctx, msg.Card, msg.Records)
	if err != nil {
		if errors.Is(err, core.ErrUnknownCard) {
			return fmt.Errorf("%w: %w", amqp.ErrMalformed, err)
		}
		return fmt.Errorf("append records: %w", err)
	}

	slog.InfoContext(ctx, "Record batch stored",
		"id", msg.ID,
		"card", msg.Card,
		"written", n)
	return nil
}

// Run consumes batches until ctx is cancelled. Cancellation is not an error.
func (w *IngestWorker) Run(ctx context.Context, consumer Consumer) error {
	slog.InfoContext(ctx, "Ingest worker started")
	err := consumer.ConsumeRecordBatches(ctx, w.HandleBatch)
	if errors.Is(err, context.Canceled) {
		slog.InfoContext(ctx, "Ingest worker stopped")
		return nil
	}
	return err
}
