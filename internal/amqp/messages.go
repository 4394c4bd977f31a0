package amqp

import (
	"encoding/json"
	"time"
)

// TransactionExportMessage tells the export worker that a transaction needs to
// be mirrored to the external ledger. It carries only the ID; the worker
// fetches the current row from the database so a stale message can never
// overwrite a newer edit.
type TransactionExportMessage struct {
	TransactionID string    `json:"transaction_id"`
	Action        string    `json:"action"` // created, updated, deleted
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionExportMessage(transactionID, action string) *TransactionExportMessage {
	return &TransactionExportMessage{
		TransactionID: transactionID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
