package credit

import "errors"

var (
	// ErrInsufficientCredits is returned when a deduction exceeds the
	// balance. The deduction has no partial effect.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned for non-positive ledger amounts.
	ErrInvalidAmount = errors.New("credit amount must be positive")

	// ErrBalanceNotFound is returned when a balance row does not exist.
	ErrBalanceNotFound = errors.New("credit balance not found")
)
