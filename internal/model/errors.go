package model

import "errors"

// Typed failures surfaced by the ledger. Handlers map these to response
// codes; ErrStoreUnavailable is the only class a client may retry.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSenderNotFound      = errors.New("sender account not found")
	ErrReceiverNotFound    = errors.New("receiver account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrStoreUnavailable    = errors.New("store unavailable")

	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
