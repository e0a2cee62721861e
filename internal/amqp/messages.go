package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"financialchecker/internal/core"
)

// TransactionCreatedMessage announces a stored transaction. Consumers that
// need the full record re-read the store.
type TransactionCreatedMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage builds the message for a stored record.
func NewTransactionCreatedMessage(r core.Record) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:        r.ID,
		Type:      r.Type,
		Amount:    r.Amount.StringFixed(2),
		Date:      r.Date,
		Category:  r.Category,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes and sanity-checks a message body.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("message has no transaction id")
	}
	return &msg, nil
}
