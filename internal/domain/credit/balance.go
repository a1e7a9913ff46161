// Package credit provides the credit ledger domain: a denormalized
// balance per user plus an append-only transaction log, and the pure cost
// model that prices metered work in credits.
package credit

import (
	"fmt"
	"time"
)

// Balance is the denormalized credit balance of a user. It is mutated
// only through ledger operations, never directly; the storage layer
// enforces the balance >= 0 floor atomically.
type Balance struct {
	id                uint
	userID            uint
	balance           int64
	lifetimePurchased int64
	lifetimeUsed      int64
	autoUseCredits    bool
	updatedAt         time.Time
}

// NewBalance creates a zero balance for a user. Auto-use of credits
// defaults to enabled.
func NewBalance(userID uint) (*Balance, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	return &Balance{
		userID:         userID,
		autoUseCredits: true,
		updatedAt:      time.Now(),
	}, nil
}

// ReconstructBalance reconstructs a balance from persistence.
func ReconstructBalance(
	id, userID uint,
	balance, lifetimePurchased, lifetimeUsed int64,
	autoUseCredits bool,
	updatedAt time.Time,
) (*Balance, error) {
	if id == 0 {
		return nil, fmt.Errorf("balance ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if balance < 0 {
		return nil, fmt.Errorf("balance cannot be negative: %d", balance)
	}
	return &Balance{
		id:                id,
		userID:            userID,
		balance:           balance,
		lifetimePurchased: lifetimePurchased,
		lifetimeUsed:      lifetimeUsed,
		autoUseCredits:    autoUseCredits,
		updatedAt:         updatedAt,
	}, nil
}

// ID returns the balance row ID.
func (b *Balance) ID() uint { return b.id }

// UserID returns the owning user ID.
func (b *Balance) UserID() uint { return b.userID }

// Current returns the spendable credit balance.
func (b *Balance) Current() int64 { return b.balance }

// LifetimePurchased returns credits ever granted by purchase/bonus/refund.
func (b *Balance) LifetimePurchased() int64 { return b.lifetimePurchased }

// LifetimeUsed returns credits ever consumed.
func (b *Balance) LifetimeUsed() int64 { return b.lifetimeUsed }

// AutoUseCredits reports whether the engine may fall back to credits when
// the plan quota is exhausted.
func (b *Balance) AutoUseCredits() bool { return b.autoUseCredits }

// UpdatedAt returns when the balance was last touched.
func (b *Balance) UpdatedAt() time.Time { return b.updatedAt }

// CanCover reports whether the balance covers the given cost. Advisory
// only: the authoritative check is the atomic deduction in the ledger.
func (b *Balance) CanCover(cost int64) bool {
	return cost >= 0 && b.balance >= cost
}
