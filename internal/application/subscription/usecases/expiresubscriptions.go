package usecases

import (
	"context"

	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// expireBatchSize bounds how many rows one sweep pass touches.
const expireBatchSize = 200

// ExpireSubscriptionsUseCase is the scheduled safety net behind webhook
// delivery: it downgrades subscriptions whose entitlement cutoff has
// passed but whose expired event never arrived.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	rebuilder        SnapshotRebuilder
	logger           logger.Interface
}

// NewExpireSubscriptionsUseCase creates a new ExpireSubscriptionsUseCase instance.
func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.Repository,
	rebuilder SnapshotRebuilder,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		rebuilder:        rebuilder,
		logger:           logger,
	}
}

// Execute expires all overdue subscriptions and rebuilds their snapshots
// inline. Returns the number of subscriptions downgraded; rows that fail
// are logged and left for the next sweep.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	subs, err := uc.subscriptionRepo.ListEntitlementExpired(ctx, now, expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range subs {
		if !sub.MarkExpired(now) {
			continue
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			uc.logger.Errorw("failed to expire subscription",
				"user_id", sub.UserID(),
				"subscription_id", sub.SID(),
				"error", err,
			)
			continue
		}
		if _, err := uc.rebuilder.Rebuild(ctx, sub.UserID()); err != nil {
			uc.logger.Errorw("post-expiry snapshot rebuild failed",
				"user_id", sub.UserID(),
				"error", err,
			)
		}
		expired++
	}

	if expired > 0 {
		uc.logger.Infow("expired overdue subscriptions", "count", expired)
	}
	return expired, nil
}
