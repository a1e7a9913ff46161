package entitlement

import (
	"context"
	"time"
)

// SnapshotRepository defines the interface for snapshot persistence.
type SnapshotRepository interface {
	// GetByUserID retrieves the snapshot for a user, or nil if none exists.
	GetByUserID(ctx context.Context, userID uint) (*Snapshot, error)

	// Create inserts a new snapshot row.
	Create(ctx context.Context, s *Snapshot) error

	// UpdateWithVersion persists the snapshot only if the stored row still
	// carries the version the aggregate was loaded with (the aggregate
	// bumps its version on every mutation). Returns ErrVersionConflict
	// when a concurrent writer won; callers re-read and retry.
	UpdateWithVersion(ctx context.Context, s *Snapshot) error

	// SetRebuildStatus updates only the rebuild status column. Used to
	// persist the failed marker even when the rest of a rebuild's write
	// never happened.
	SetRebuildStatus(ctx context.Context, userID uint, status RebuildStatus) error

	// ListCycleExpired returns the user ids of snapshots whose billing
	// cycle ended before now. Feeds the scheduled rollover sweep; reads
	// also self-heal, so this only keeps idle accounts fresh.
	ListCycleExpired(ctx context.Context, now time.Time, limit int) ([]uint, error)
}
