package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"despesas/internal/core"
)

// ErrMalformed marks a message that can never be processed. Such messages
// are rejected without requeue.
var ErrMalformed = errors.New("malformed message")

// RecordBatchMessage carries raw records to append to one card's store
type RecordBatchMessage struct {
	ID        string                  `json:"id"`
	Card      core.Card               `json:"card"`
	Records   []core.RawExpenseRecord `json:"records"`
	Source    string                  `json:"source,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// NewRecordBatchMessage creates a batch message with a fresh ID
func NewRecordBatchMessage(card core.Card, recs []core.RawExpenseRecord, source string) *RecordBatchMessage {
	return &RecordBatchMessage{
		ID:        uuid.NewString(),
		Card:      card,
		Records:   recs,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Validate checks the card and the period of every record. Category and
// amount may be absent.
func (m *RecordBatchMessage) Validate() error {
	if !m.Card.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrMalformed, core.ErrUnknownCard, m.Card)
	}
	if len(m.Records) == 0 {
		return fmt.Errorf("%w: empty batch", ErrMalformed)
	}
	for i, r := range m.Records {
		if err := (core.Period{Year: r.Ano, Month: r.Mes}).Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrMalformed, i, err)
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordBatchMessageFromJSON decodes and validates a message
func RecordBatchMessageFromJSON(data []byte) (*RecordBatchMessage, error) {
	var msg RecordBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
