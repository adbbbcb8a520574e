package model

import "time"

// Account is the per-user balance record. Balances are int64 minor units
// and never go below zero at a commit boundary.
type Account struct {
	UserID  int64
	Balance int64
}

// Transaction is the persisted record of one committed transfer.
type Transaction struct {
	ID        int64
	From      int64
	To        int64
	Amount    int64
	CreatedAt time.Time
}
