package usecases

import (
	"context"

	"github.com/clawncore/colabwize-backend/internal/domain/credit"
)

// CreditService is the slice of the credit ledger the gate engine needs:
// reading the balance for fallback decisions and atomically deducting the
// computed cost when plan quota runs out.
type CreditService interface {
	// GetBalance returns the user's credit balance, or nil when the user
	// has never held credits.
	GetBalance(ctx context.Context, userID uint) (*credit.Balance, error)

	// Deduct atomically removes amount credits and records a usage
	// transaction. Returns credit.ErrInsufficientCredits when the balance
	// cannot cover the amount.
	Deduct(ctx context.Context, userID uint, amount int64, referenceID *string, description string) error
}
