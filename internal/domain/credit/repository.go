package credit

import "context"

// Repository defines the interface for credit ledger persistence. The
// compound ledger operations (add, deduct) are composed from these calls
// inside a single storage transaction by the application layer; the
// balance mutations themselves are single-trip atomic statements.
type Repository interface {
	// GetBalanceByUserID retrieves the balance row for a user, or nil if
	// the user has none yet.
	GetBalanceByUserID(ctx context.Context, userID uint) (*Balance, error)

	// CreateBalance inserts a new balance row.
	CreateBalance(ctx context.Context, b *Balance) error

	// FindPurchaseByReference returns the PURCHASE transaction recorded
	// for the given external reference id, or nil if none exists. Used
	// for idempotent replay protection.
	FindPurchaseByReference(ctx context.Context, referenceID string) (*Transaction, error)

	// CreateTransaction appends a ledger entry.
	CreateTransaction(ctx context.Context, t *Transaction) error

	// AddToBalance atomically increments the balance (and, for grants
	// other than usage refunds of plan quota, lifetime_purchased).
	AddToBalance(ctx context.Context, userID uint, amount int64, countAsPurchased bool) error

	// DeductFromBalance atomically decrements the balance if and only if
	// it covers the amount, also incrementing lifetime_used. Returns
	// ErrInsufficientCredits without any effect when it does not.
	DeductFromBalance(ctx context.Context, userID uint, amount int64) error

	// SetAutoUse toggles the auto-use-credits preference.
	SetAutoUse(ctx context.Context, userID uint, enabled bool) error

	// ListTransactions returns the most recent ledger entries for a user.
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]*Transaction, error)
}
