package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEvent mirrors a ledger write so downstream consumers (audit,
// notifications) can react without coupling to the request path. It carries
// identifiers only; consumers fetch the full record when they need it.
type TransactionEvent struct {
	Action        string    `json:"action"` // created | deleted
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(action, transactionID, userID string) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
