package usage

import (
	"context"
	"time"
)

// Repository defines the interface for usage counter persistence.
type Repository interface {
	// Increment adds delta to the (user, feature, period) counter,
	// creating the row on first use.
	Increment(ctx context.Context, userID uint, feature string, periodStart time.Time, delta int64) error

	// GetCount returns the counter value for one feature in a period;
	// zero when the row does not exist.
	GetCount(ctx context.Context, userID uint, feature string, periodStart time.Time) (int64, error)

	// GetCountsForPeriod returns all feature counters for a user in a
	// period, keyed by canonical feature name. Used to seed rebuilds.
	GetCountsForPeriod(ctx context.Context, userID uint, periodStart time.Time) (map[string]int64, error)

	// ListForUser returns the most recent counter rows for a user,
	// newest period first. Used by billing history views.
	ListForUser(ctx context.Context, userID uint, limit int) ([]*Record, error)
}
