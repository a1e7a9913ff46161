// Package usage provides per-user, per-feature, per-billing-period
// consumption counters. They seed snapshot rebuilds and double as an
// audit trail independent of the snapshot; they tolerate eventual
// consistency because enforcement never reads them on the hot path.
package usage

import (
	"fmt"
	"time"
)

// Record is one (user, feature, period) counter row.
type Record struct {
	id          uint
	userID      uint
	feature     string
	periodStart time.Time
	count       int64
	updatedAt   time.Time
}

// NewRecord creates a counter row starting at zero.
func NewRecord(userID uint, feature string, periodStart time.Time) (*Record, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if feature == "" {
		return nil, fmt.Errorf("feature is required")
	}
	if periodStart.IsZero() {
		return nil, fmt.Errorf("period start cannot be zero")
	}
	return &Record{
		userID:      userID,
		feature:     feature,
		periodStart: periodStart,
		updatedAt:   time.Now(),
	}, nil
}

// ReconstructRecord reconstructs a counter row from persistence.
func ReconstructRecord(id, userID uint, feature string, periodStart time.Time, count int64, updatedAt time.Time) (*Record, error) {
	if id == 0 {
		return nil, fmt.Errorf("usage record ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if feature == "" {
		return nil, fmt.Errorf("feature is required")
	}
	if count < 0 {
		return nil, fmt.Errorf("usage count cannot be negative: %d", count)
	}
	return &Record{
		id:          id,
		userID:      userID,
		feature:     feature,
		periodStart: periodStart,
		count:       count,
		updatedAt:   updatedAt,
	}, nil
}

// ID returns the record ID.
func (r *Record) ID() uint { return r.id }

// UserID returns the owning user ID.
func (r *Record) UserID() uint { return r.userID }

// Feature returns the canonical feature key.
func (r *Record) Feature() string { return r.feature }

// PeriodStart returns the billing period the counter covers.
func (r *Record) PeriodStart() time.Time { return r.periodStart }

// Count returns the recorded consumption.
func (r *Record) Count() int64 { return r.count }

// UpdatedAt returns when the counter last moved.
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }
