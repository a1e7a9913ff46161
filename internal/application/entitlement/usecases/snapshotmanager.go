// Package usecases provides application-level use cases for entitlement
// enforcement: snapshot lifecycle and the feature gate engine.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// maxConsumeRetries bounds the optimistic-lock retry loop on the consume
// path. Conflicts resolve in one or two rounds under normal contention.
const maxConsumeRetries = 3

// SnapshotManager owns the entitlement snapshot lifecycle: cold-start
// creation, full rebuilds, cycle rollover, self-healing of drifted
// snapshots, and the version-guarded consume path.
type SnapshotManager struct {
	snapshotRepo     entitlement.SnapshotRepository
	subscriptionRepo subscription.Repository
	usageRepo        usage.Repository
	catalog          *plan.Catalog
	logger           logger.Interface
}

// NewSnapshotManager creates a new SnapshotManager instance.
func NewSnapshotManager(
	snapshotRepo entitlement.SnapshotRepository,
	subscriptionRepo subscription.Repository,
	usageRepo usage.Repository,
	catalog *plan.Catalog,
	logger logger.Interface,
) *SnapshotManager {
	return &SnapshotManager{
		snapshotRepo:     snapshotRepo,
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		catalog:          catalog,
		logger:           logger,
	}
}

// Rebuild recomputes a user's snapshot from the subscription record, the
// plan catalog and the usage counters for the current cycle. The failed
// marker is persisted before returning any rebuild error so a partial
// snapshot never passes for a healthy one.
func (m *SnapshotManager) Rebuild(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	snap, err := m.ensureSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := m.snapshotRepo.SetRebuildStatus(ctx, userID, entitlement.RebuildStatusRunning); err != nil {
		m.logger.Errorw("failed to mark snapshot rebuild running", "user_id", userID, "error", err)
		return nil, err
	}

	planID, cycleStart, cycleEnd, features, err := m.compute(ctx, userID)
	if err != nil {
		m.markFailed(ctx, userID)
		m.logger.Errorw("snapshot rebuild failed", "user_id", userID, "error", err)
		return nil, err
	}

	now := biztime.NowUTC()
	for attempt := 0; attempt < maxConsumeRetries; attempt++ {
		snap.CompleteRebuild(planID, features, cycleStart, cycleEnd, now)
		err = m.snapshotRepo.UpdateWithVersion(ctx, snap)
		if err == nil {
			m.logger.Infow("snapshot rebuilt",
				"user_id", userID,
				"plan_id", planID,
				"cycle_start", cycleStart,
				"cycle_end", cycleEnd,
			)
			return snap, nil
		}
		if !errors.Is(err, entitlement.ErrVersionConflict) {
			m.markFailed(ctx, userID)
			return nil, err
		}
		snap, err = m.snapshotRepo.GetByUserID(ctx, userID)
		if err != nil {
			m.markFailed(ctx, userID)
			return nil, err
		}
		if snap == nil {
			m.markFailed(ctx, userID)
			return nil, entitlement.ErrSnapshotNotFound
		}
	}

	m.markFailed(ctx, userID)
	return nil, entitlement.ErrVersionConflict
}

// Get returns a healthy snapshot for the user, rebuilding on cold start,
// on cycle rollover, after a failed rebuild, and when the stored limits
// of critical features have drifted from what the catalog currently
// grants the stored plan. When the failed-rebuild retry fails again the
// last-good snapshot is served rather than an error.
func (m *SnapshotManager) Get(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	snap, err := m.snapshotRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		m.logger.Infow("cold-start snapshot rebuild", "user_id", userID)
		return m.Rebuild(ctx, userID)
	}

	now := biztime.NowUTC()
	if snap.NeedsCycleRollover(now) {
		m.logger.Infow("cycle rollover snapshot rebuild",
			"user_id", userID,
			"cycle_end", snap.CycleEnd(),
		)
		return m.Rebuild(ctx, userID)
	}

	if snap.RebuildStatus() == entitlement.RebuildStatusFailed {
		m.logger.Warnw("retrying failed snapshot rebuild", "user_id", userID)
		rebuilt, rerr := m.Rebuild(ctx, userID)
		if rerr == nil {
			return rebuilt, nil
		}
		// Last-good state is still better than blocking the request; the
		// caller sees the failed status and can decide to safe-allow.
		m.logger.Errorw("snapshot rebuild retry failed, serving last good state",
			"user_id", userID,
			"error", rerr,
		)
		return snap, nil
	}

	if snap.RebuildStatus().IsStable() && m.limitsDrifted(snap) {
		m.logger.Warnw("snapshot limits drifted from catalog, rebuilding",
			"user_id", userID,
			"plan_id", snap.PlanID(),
		)
		return m.Rebuild(ctx, userID)
	}

	return snap, nil
}

// Consume attempts to deduct one unit of plan quota for a canonical
// feature key. It returns true when a unit was secured (or the feature is
// unlimited), false when the feature is absent or its quota is exhausted.
// Concurrent consumers serialize on the snapshot version; a lost race is
// retried against a fresh read so no two requests spend the same unit.
func (m *SnapshotManager) Consume(ctx context.Context, userID uint, key string) (bool, error) {
	snap, err := m.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	for attempt := 0; attempt < maxConsumeRetries; attempt++ {
		rights, ok := snap.Feature(key)
		if !ok {
			return false, nil
		}
		if rights.Unlimited {
			return true, nil
		}
		if err := snap.Consume(key); err != nil {
			if errors.Is(err, entitlement.ErrQuotaExhausted) {
				return false, nil
			}
			return false, err
		}

		err = m.snapshotRepo.UpdateWithVersion(ctx, snap)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, entitlement.ErrVersionConflict) {
			return false, err
		}

		m.logger.Debugw("consume lost version race, retrying",
			"user_id", userID,
			"feature", key,
			"attempt", attempt+1,
		)
		snap, err = m.snapshotRepo.GetByUserID(ctx, userID)
		if err != nil {
			return false, err
		}
		if snap == nil {
			return false, entitlement.ErrSnapshotNotFound
		}
	}

	return false, entitlement.ErrVersionConflict
}

// ensureSnapshot loads the user's snapshot, creating the empty shell row
// on cold start so later writes have a version to guard on.
func (m *SnapshotManager) ensureSnapshot(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	snap, err := m.snapshotRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	snap, err = entitlement.NewSnapshot(userID)
	if err != nil {
		return nil, err
	}
	if err := m.snapshotRepo.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("create snapshot shell: %w", err)
	}
	return snap, nil
}

// compute derives the snapshot inputs: effective plan, billing cycle
// window and per-feature rights seeded from the usage counters.
func (m *SnapshotManager) compute(ctx context.Context, userID uint) (string, time.Time, time.Time, map[string]entitlement.FeatureRights, error) {
	now := biztime.NowUTC()

	sub, err := m.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", time.Time{}, time.Time{}, nil, fmt.Errorf("load subscription: %w", err)
	}

	planID := plan.FreePlanID
	if sub != nil {
		planID = sub.EffectivePlanID(now)
	}

	cycleStart, cycleEnd := m.cycleWindow(sub, planID, now)

	counts, err := m.usageRepo.GetCountsForPeriod(ctx, userID, cycleStart)
	if err != nil {
		return "", time.Time{}, time.Time{}, nil, fmt.Errorf("load usage counters: %w", err)
	}

	limits := m.catalog.Limits(planID)
	features := make(map[string]entitlement.FeatureRights, len(limits))
	for key, limit := range limits {
		features[key] = entitlement.NewFeatureRights(limit, int(counts[key]))
	}

	return planID, cycleStart, cycleEnd, features, nil
}

// cycleWindow picks the billing window the snapshot covers: the provider
// billing period when the subscription carries a current one, otherwise
// the calendar month. Free users always roll on calendar months.
func (m *SnapshotManager) cycleWindow(sub *subscription.Subscription, planID string, now time.Time) (time.Time, time.Time) {
	if planID != plan.FreePlanID && sub != nil {
		start, end := sub.CurrentPeriodStart(), sub.CurrentPeriodEnd()
		if !start.IsZero() && !end.IsZero() && now.Before(end) && !now.Before(start) {
			return start, end
		}
	}
	return biztime.CalendarMonthWindow(now)
}

// limitsDrifted reports whether the catalog no longer matches the stored
// limits of the critical feature set, or the snapshot misses a critical
// feature the plan grants.
func (m *SnapshotManager) limitsDrifted(snap *entitlement.Snapshot) bool {
	limits := m.catalog.Limits(snap.PlanID())
	for _, key := range plan.CriticalFeatures {
		limit, granted := limits[key]
		rights, present := snap.Feature(key)
		if !granted {
			continue
		}
		if !present || rights.Limit != limit.Int() {
			return true
		}
	}
	return false
}

func (m *SnapshotManager) markFailed(ctx context.Context, userID uint) {
	if err := m.snapshotRepo.SetRebuildStatus(ctx, userID, entitlement.RebuildStatusFailed); err != nil {
		m.logger.Errorw("failed to persist snapshot failed marker", "user_id", userID, "error", err)
	}
}
