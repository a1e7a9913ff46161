// Package usecases provides application-level use cases for subscription
// lifecycle management driven by billing provider events.
package usecases

import (
	"context"
	"fmt"

	"github.com/clawncore/colabwize-backend/internal/application/subscription/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	apperrors "github.com/clawncore/colabwize-backend/internal/shared/errors"
	"github.com/clawncore/colabwize-backend/internal/shared/goroutine"
	"github.com/clawncore/colabwize-backend/internal/shared/id"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// subscriptionSIDLength is the random part length of subscription SIDs.
const subscriptionSIDLength = 16

// Provider event types the upsert understands.
const (
	EventCreated        = "created"
	EventUpdated        = "updated"
	EventCancelled      = "cancelled"
	EventResumed        = "resumed"
	EventExpired        = "expired"
	EventPaused         = "paused"
	EventUnpaused       = "unpaused"
	EventPaymentSuccess = "payment_success"
	EventRefund         = "refund"
)

// SnapshotRebuilder rebuilds a user's entitlement snapshot. Satisfied by
// the snapshot manager; declared here so the subscription side depends
// only on the rebuild capability.
type SnapshotRebuilder interface {
	Rebuild(ctx context.Context, userID uint) (*entitlement.Snapshot, error)
}

// UpsertSubscriptionUseCase applies one normalized billing provider event
// to the user's subscription row. Every applied event fires an async
// snapshot rebuild; a stale snapshot after a plan change is the failure
// this exists to prevent.
type UpsertSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	rebuilder        SnapshotRebuilder
	logger           logger.Interface
}

// NewUpsertSubscriptionUseCase creates a new UpsertSubscriptionUseCase instance.
func NewUpsertSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	rebuilder SnapshotRebuilder,
	logger logger.Interface,
) *UpsertSubscriptionUseCase {
	return &UpsertSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		rebuilder:        rebuilder,
		logger:           logger,
	}
}

// Execute upserts the subscription for the event's user. Events are
// keyed by user id; replaying an event converges on the same row state,
// and an out-of-order expired event for an already-renewed user is
// dropped.
func (uc *UpsertSubscriptionUseCase) Execute(ctx context.Context, event dto.BillingEvent) error {
	if event.UserID == 0 {
		return apperrors.NewValidationError("user ID is required")
	}

	sub, err := uc.subscriptionRepo.GetByUserID(ctx, event.UserID)
	if err != nil {
		return err
	}

	created := false
	if sub == nil {
		sub, err = uc.newShadowRow(event.UserID)
		if err != nil {
			return err
		}
		created = true
	}

	applied, err := uc.apply(sub, event)
	if err != nil {
		return err
	}
	if !applied {
		uc.logger.Infow("out-of-order billing event ignored",
			"user_id", event.UserID,
			"event_type", event.EventType,
			"entitlement_expires_at", sub.EntitlementExpiresAt(),
		)
		if !created {
			return nil
		}
	}

	if created {
		err = uc.subscriptionRepo.Create(ctx, sub)
	} else {
		err = uc.subscriptionRepo.Update(ctx, sub)
	}
	if err != nil {
		return err
	}

	uc.logger.Infow("subscription upserted",
		"user_id", event.UserID,
		"event_type", event.EventType,
		"plan_id", sub.PlanID(),
		"status", sub.Status().String(),
	)

	userID := event.UserID
	goroutine.SafeGo(uc.logger, "snapshot-rebuild", func() {
		if _, err := uc.rebuilder.Rebuild(context.Background(), userID); err != nil {
			uc.logger.Errorw("post-upsert snapshot rebuild failed",
				"user_id", userID,
				"error", err,
			)
		}
	})
	return nil
}

// apply mutates the aggregate per event type. Returns false when the
// event was recognized but dropped by replay protection.
func (uc *UpsertSubscriptionUseCase) apply(sub *subscription.Subscription, event dto.BillingEvent) (bool, error) {
	now := biztime.NowUTC()

	switch event.EventType {
	case EventCreated, EventUpdated, EventPaymentSuccess:
		status := vo.SubscriptionStatus(event.Status)
		if event.Status == "" {
			status = vo.StatusActive
		}
		if err := sub.UpdateFromProvider(
			event.PlanID,
			status,
			event.ProviderCustomerID,
			event.ProviderSubscriptionID,
			event.CurrentPeriodStart,
			event.CurrentPeriodEnd,
			event.RenewsAt,
			event.EndsAt,
		); err != nil {
			return false, apperrors.NewValidationError(err.Error())
		}
		if status.GrantsAccess() {
			sub.ClearEntitlementExpiry()
		}
		return true, nil

	case EventCancelled:
		if event.Immediate {
			sub.CancelImmediately(now)
			return true, nil
		}
		cutoff := sub.CurrentPeriodEnd()
		if event.EndsAt != nil {
			cutoff = *event.EndsAt
		}
		if cutoff.IsZero() {
			cutoff = now
		}
		sub.ScheduleCancellation(cutoff)
		return true, nil

	case EventResumed, EventUnpaused:
		sub.Resume()
		return true, nil

	case EventPaused:
		sub.Pause()
		return true, nil

	case EventExpired:
		return sub.MarkExpired(now), nil

	case EventRefund:
		// A refunded subscription payment revokes access right away.
		sub.CancelImmediately(now)
		return true, nil

	default:
		return false, apperrors.NewValidationError(fmt.Sprintf("unknown billing event type: %s", event.EventType))
	}
}

// newShadowRow lazily creates the free-tier subscription row for users
// whose first billing event arrives before any checkout.
func (uc *UpsertSubscriptionUseCase) newShadowRow(userID uint) (*subscription.Subscription, error) {
	now := biztime.NowUTC()
	start, end := biztime.CalendarMonthWindow(now)
	sid := id.MustGenerateWithPrefix(id.PrefixSubscription, subscriptionSIDLength)
	return subscription.NewFreeSubscription(userID, sid, start, end)
}
