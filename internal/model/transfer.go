package model

import "time"

// Receipt is returned to the caller after a transfer commits.
type Receipt struct {
	TransactionID int64
	From          int64
	To            int64
	Amount        int64
}

// TransferEvent is published to Kafka after a transfer commits. Publishing
// is best-effort and never part of the atomic scope.
type TransferEvent struct {
	TransactionID int64     `json:"transaction_id"`
	From          int64     `json:"from"`
	To            int64     `json:"to"`
	Amount        int64     `json:"amount"`
	CompletedAt   time.Time `json:"completed_at"`
}
