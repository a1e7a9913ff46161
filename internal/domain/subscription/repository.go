package subscription

import (
	"context"
	"time"
)

// Repository defines the interface for subscription persistence operations.
type Repository interface {
	// GetByUserID retrieves the subscription for a user, or nil if the
	// user has no row yet.
	GetByUserID(ctx context.Context, userID uint) (*Subscription, error)

	// Create inserts a new subscription row.
	Create(ctx context.Context, sub *Subscription) error

	// Update persists a modified subscription using the aggregate version
	// for optimistic locking.
	Update(ctx context.Context, sub *Subscription) error

	// ListEntitlementExpired returns subscriptions whose entitlement
	// expiry has passed but whose status has not been marked expired yet.
	ListEntitlementExpired(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}
