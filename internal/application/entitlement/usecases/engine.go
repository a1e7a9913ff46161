package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	apperrors "github.com/clawncore/colabwize-backend/internal/shared/errors"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// Engine is the single enforcement gate for feature usage. Every
// word-count-consuming operation passes through AssertCanUse, which
// decides plan quota vs credit fallback vs denial and performs the
// deduction as part of the decision.
type Engine struct {
	snapshots        *SnapshotManager
	subscriptionRepo subscription.Repository
	usageRepo        usage.Repository
	credits          CreditService
	catalog          *plan.Catalog
	logger           logger.Interface
}

// NewEngine creates a new Engine instance.
func NewEngine(
	snapshots *SnapshotManager,
	subscriptionRepo subscription.Repository,
	usageRepo usage.Repository,
	credits CreditService,
	catalog *plan.Catalog,
	logger logger.Interface,
) *Engine {
	return &Engine{
		snapshots:        snapshots,
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		credits:          credits,
		catalog:          catalog,
		logger:           logger,
	}
}

// AssertCanUse gates one feature request for a user. Allowed requests are
// charged before this returns: either a plan quota unit or the credit
// cost for the supplied word counts. Denials map to the billing error
// taxonomy so handlers can surface actionable responses.
func (e *Engine) AssertCanUse(ctx context.Context, userID uint, feature string, meta *credit.CostMetadata) (*dto.Decision, error) {
	key, ok := plan.CanonicalFeature(feature)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown feature: %s", feature))
	}

	sub, err := e.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		e.logger.Errorw("failed to load subscription for gate check", "user_id", userID, "error", err)
		sub = nil
	}

	snap, err := e.snapshots.Get(ctx, userID)
	if err != nil || !snap.RebuildStatus().IsStable() {
		if dec := e.safeAllow(ctx, userID, key, sub, err); dec != nil {
			return dec, nil
		}
		if err != nil {
			return nil, apperrors.NewSnapshotRebuildFailedError(err.Error())
		}
	}

	now := biztime.NowUTC()
	if sub != nil && sub.HasPaidAccess(now) && snap.PlanID() == plan.FreePlanID {
		e.logger.Warnw("snapshot lags paid subscription, rebuilding",
			"user_id", userID,
			"plan_id", sub.PlanID(),
		)
		if rebuilt, rerr := e.snapshots.Rebuild(ctx, userID); rerr == nil {
			snap = rebuilt
		} else {
			e.logger.Errorw("divergence rebuild failed", "user_id", userID, "error", rerr)
		}
	}

	rights, present := snap.Feature(key)
	if !present {
		if _, granted := e.catalog.Limits(snap.PlanID())[key]; granted {
			if rebuilt, rerr := e.snapshots.Rebuild(ctx, userID); rerr == nil {
				snap = rebuilt
				rights, present = snap.Feature(key)
			} else {
				e.logger.Errorw("missing-feature rebuild failed", "user_id", userID, "feature", key, "error", rerr)
			}
		}
	}
	if !present || (!rights.Enabled && !rights.Unlimited) {
		return nil, apperrors.NewFeatureNotOnPlanError(key, snap.PlanID())
	}

	if rights.Unlimited {
		e.recordUsage(ctx, userID, key, snap.CycleStart())
		return &dto.Decision{
			Allowed:   true,
			Feature:   key,
			Source:    dto.SourceUnlimited,
			Remaining: entitlement.UnlimitedRemaining,
			Unlimited: true,
		}, nil
	}

	if rights.Remaining > 0 {
		consumed, cerr := e.snapshots.Consume(ctx, userID, key)
		if cerr != nil {
			return nil, cerr
		}
		if consumed {
			e.recordUsage(ctx, userID, key, snap.CycleStart())
			return &dto.Decision{
				Allowed:   true,
				Feature:   key,
				Source:    dto.SourcePlan,
				Remaining: rights.Remaining - 1,
			}, nil
		}
	}

	return e.consumeCredits(ctx, userID, key, meta, snap.CycleStart())
}

// CheckEligibility answers whether the plan entitles the user to the
// feature right now, without consuming anything. It reports the plan
// quota only: whether credits could cover an over-quota request is a
// balance question, not an entitlement one.
func (e *Engine) CheckEligibility(ctx context.Context, userID uint, feature string) (*dto.Eligibility, error) {
	key, ok := plan.CanonicalFeature(feature)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown feature: %s", feature))
	}

	snap, err := e.snapshots.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.NewSnapshotRebuildFailedError(err.Error())
	}

	rights, present := snap.Feature(key)
	if !present || (!rights.Enabled && !rights.Unlimited) {
		return &dto.Eligibility{Feature: key}, nil
	}
	if rights.Unlimited {
		return &dto.Eligibility{
			Feature:   key,
			Allowed:   true,
			Remaining: entitlement.UnlimitedRemaining,
			Unlimited: true,
		}, nil
	}
	if rights.Remaining > 0 {
		return &dto.Eligibility{Feature: key, Allowed: true, Remaining: rights.Remaining}, nil
	}
	return &dto.Eligibility{Feature: key}, nil
}

// safeAllow handles gate checks while the snapshot is rebuilding or its
// last rebuild failed. A user whose raw subscription grants paid access
// is allowed through without a deduction rather than blocked on derived
// state; everyone else falls back to the strict path.
func (e *Engine) safeAllow(ctx context.Context, userID uint, key string, sub *subscription.Subscription, getErr error) *dto.Decision {
	if sub == nil || !sub.HasPaidAccess(biztime.NowUTC()) {
		return nil
	}

	e.logger.Warnw("snapshot unstable, allowing on raw subscription",
		"user_id", userID,
		"feature", key,
		"plan_id", sub.PlanID(),
		"snapshot_error", getErr,
	)
	e.recordUsage(ctx, userID, key, time.Time{})
	return &dto.Decision{
		Allowed:   true,
		Feature:   key,
		Source:    dto.SourcePlan,
		Remaining: entitlement.UnlimitedRemaining,
	}
}

// consumeCredits is the fallback pool: charges the word-derived cost to
// the credit balance when the plan quota is exhausted or credit-only.
func (e *Engine) consumeCredits(ctx context.Context, userID uint, key string, meta *credit.CostMetadata, cycleStart time.Time) (*dto.Decision, error) {
	balance, err := e.credits.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	var held int64
	autoUse := true
	if balance != nil {
		held = balance.Current()
		autoUse = balance.AutoUseCredits()
	}
	if !autoUse {
		return nil, apperrors.NewPlanLimitReachedError(key)
	}

	cost := credit.CalculateCost(key, meta)
	if cost <= 0 {
		return nil, apperrors.NewPlanLimitReachedError(key)
	}

	description := fmt.Sprintf("%s usage", key)
	if err := e.credits.Deduct(ctx, userID, cost, nil, description); err != nil {
		if errors.Is(err, credit.ErrInsufficientCredits) {
			return nil, apperrors.NewInsufficientCreditsError(cost, held)
		}
		return nil, err
	}

	e.recordUsage(ctx, userID, key, cycleStart)
	return &dto.Decision{
		Allowed:     true,
		Feature:     key,
		Source:      dto.SourceCredit,
		CostCharged: cost,
	}, nil
}

// recordUsage bumps the per-period usage counter. The counter is an
// audit trail and rebuild seed, not the enforcement source, so failures
// are logged and swallowed.
func (e *Engine) recordUsage(ctx context.Context, userID uint, key string, periodStart time.Time) {
	if periodStart.IsZero() {
		periodStart, _ = biztime.CalendarMonthWindow(biztime.NowUTC())
	}
	if err := e.usageRepo.Increment(ctx, userID, key, periodStart, 1); err != nil {
		e.logger.Warnw("failed to record usage", "user_id", userID, "feature", key, "error", err)
	}
}
