package utils

import "ledger/internal/model"

const maxAmount = 1_000_000_000

// ValidateAmount rejects non-positive amounts and amounts past the sanity
// ceiling before any account state is touched.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	if amount >= maxAmount {
		return model.ErrInvalidAmount
	}
	return nil
}
