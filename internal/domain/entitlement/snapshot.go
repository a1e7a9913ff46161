// Package entitlement provides the entitlement snapshot aggregate: a
// materialized, versioned view of Plan Catalog x Subscription x Usage,
// holding per-feature rights for fast gate decisions. The snapshot is
// strictly a derived, rebuildable cache of the subscription record; it is
// mutated only through rebuild and the version-guarded consume path.
package entitlement

import (
	"fmt"
	"time"

	"github.com/clawncore/colabwize-backend/internal/domain/plan"
)

// UnlimitedRemaining is the sentinel stored in Remaining for unlimited features.
const UnlimitedRemaining = -1

// FeatureRights is the per-feature entitlement state within a snapshot.
type FeatureRights struct {
	Limit     int  `json:"limit"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
	Enabled   bool `json:"enabled"`
}

// NewFeatureRights derives the rights for one feature from its catalog
// limit and the usage already recorded this cycle.
func NewFeatureRights(limit plan.Limit, used int) FeatureRights {
	if used < 0 {
		used = 0
	}
	switch {
	case limit.IsUnlimited():
		return FeatureRights{
			Limit:     plan.Unlimited.Int(),
			Used:      used,
			Remaining: UnlimitedRemaining,
			Unlimited: true,
			Enabled:   true,
		}
	case limit.IsCreditOnly():
		return FeatureRights{
			Limit:     plan.CreditOnly.Int(),
			Used:      used,
			Remaining: 0,
			Enabled:   true,
		}
	default:
		remaining := limit.Int() - used
		if remaining < 0 {
			remaining = 0
		}
		return FeatureRights{
			Limit:     limit.Int(),
			Used:      used,
			Remaining: remaining,
			Enabled:   limit.Int() > 0,
		}
	}
}

// Snapshot represents the entitlement snapshot aggregate root, one per user.
type Snapshot struct {
	id            uint
	userID        uint
	planID        string
	features      map[string]FeatureRights
	cycleStart    time.Time
	cycleEnd      time.Time
	rebuildStatus RebuildStatus
	lastRebuiltAt time.Time
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSnapshot creates an empty snapshot shell for a user. The feature map
// is populated by the first rebuild.
func NewSnapshot(userID uint) (*Snapshot, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	now := time.Now()
	return &Snapshot{
		userID:        userID,
		planID:        plan.FreePlanID,
		features:      make(map[string]FeatureRights),
		rebuildStatus: RebuildStatusIdle,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructSnapshot reconstructs a snapshot from persistence.
func ReconstructSnapshot(
	id, userID uint,
	planID string,
	features map[string]FeatureRights,
	cycleStart, cycleEnd time.Time,
	rebuildStatus RebuildStatus,
	lastRebuiltAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Snapshot, error) {
	if id == 0 {
		return nil, fmt.Errorf("snapshot ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !rebuildStatus.IsValid() {
		return nil, fmt.Errorf("invalid rebuild status: %s", rebuildStatus)
	}
	if features == nil {
		features = make(map[string]FeatureRights)
	}

	return &Snapshot{
		id:            id,
		userID:        userID,
		planID:        planID,
		features:      features,
		cycleStart:    cycleStart,
		cycleEnd:      cycleEnd,
		rebuildStatus: rebuildStatus,
		lastRebuiltAt: lastRebuiltAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

// ID returns the snapshot row ID.
func (s *Snapshot) ID() uint { return s.id }

// UserID returns the owning user ID.
func (s *Snapshot) UserID() uint { return s.userID }

// PlanID returns the plan the snapshot was built from.
func (s *Snapshot) PlanID() string { return s.planID }

// Features returns the per-feature rights map.
func (s *Snapshot) Features() map[string]FeatureRights { return s.features }

// CycleStart returns the billing cycle start the snapshot covers.
func (s *Snapshot) CycleStart() time.Time { return s.cycleStart }

// CycleEnd returns the billing cycle end the snapshot covers.
func (s *Snapshot) CycleEnd() time.Time { return s.cycleEnd }

// RebuildStatus returns the rebuild state.
func (s *Snapshot) RebuildStatus() RebuildStatus { return s.rebuildStatus }

// LastRebuiltAt returns when the snapshot was last fully recomputed.
func (s *Snapshot) LastRebuiltAt() time.Time { return s.lastRebuiltAt }

// Version returns the aggregate version for optimistic locking.
func (s *Snapshot) Version() int { return s.version }

// CreatedAt returns when the snapshot row was created.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the snapshot was last updated.
func (s *Snapshot) UpdatedAt() time.Time { return s.updatedAt }

// SetID sets the snapshot ID (only for persistence layer use).
func (s *Snapshot) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("snapshot ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("snapshot ID cannot be zero")
	}
	s.id = id
	return nil
}

// Feature returns the rights for a canonical feature key.
func (s *Snapshot) Feature(key string) (FeatureRights, bool) {
	rights, ok := s.features[key]
	return rights, ok
}

// NeedsCycleRollover reports whether the billing cycle the snapshot was
// built for has ended.
func (s *Snapshot) NeedsCycleRollover(now time.Time) bool {
	return !s.cycleEnd.IsZero() && now.After(s.cycleEnd)
}

// Consume records one unit of plan consumption for a feature, mutating
// used/remaining in place. Unlimited features allow without mutation; the
// usage-history counters still record them. The caller must persist the
// snapshot through the version-guarded update so concurrent consumers
// serialize.
func (s *Snapshot) Consume(key string) error {
	rights, ok := s.features[key]
	if !ok {
		return ErrFeatureNotInSnapshot
	}
	if rights.Unlimited {
		return nil
	}
	if rights.Remaining <= 0 {
		return ErrQuotaExhausted
	}
	rights.Used++
	rights.Remaining--
	s.features[key] = rights
	s.touch()
	return nil
}

// BeginRebuild marks the snapshot as mid-rebuild.
func (s *Snapshot) BeginRebuild() {
	s.rebuildStatus = RebuildStatusRunning
	s.touch()
}

// CompleteRebuild replaces the derived state in one step and returns the
// snapshot to idle.
func (s *Snapshot) CompleteRebuild(planID string, features map[string]FeatureRights, cycleStart, cycleEnd, now time.Time) {
	s.planID = planID
	s.features = features
	s.cycleStart = cycleStart
	s.cycleEnd = cycleEnd
	s.rebuildStatus = RebuildStatusIdle
	s.lastRebuiltAt = now
	s.touch()
}

// FailRebuild marks the snapshot as holding partial state from a failed
// rebuild. A failed snapshot must never silently pass for an idle one.
func (s *Snapshot) FailRebuild() {
	s.rebuildStatus = RebuildStatusFailed
	s.touch()
}

func (s *Snapshot) touch() {
	s.updatedAt = time.Now()
	s.version++
}
