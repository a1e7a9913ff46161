// Package subscription provides the subscription aggregate: one row per
// user holding the plan id, provider state, billing period boundaries, and
// the entitlement expiry that is the authoritative access cutoff.
package subscription

import (
	"fmt"
	"time"

	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
)

// Subscription represents the subscription aggregate root. It is written
// exclusively by the billing-webhook adapter via idempotent upsert; every
// other component treats it as the upstream-of-record for plan state.
type Subscription struct {
	id                     uint
	sid                    string // Stripe-style ID: sub_xxx
	userID                 uint
	planID                 string
	status                 vo.SubscriptionStatus
	providerCustomerID     string
	providerSubscriptionID string
	currentPeriodStart     time.Time
	currentPeriodEnd       time.Time
	renewsAt               *time.Time
	endsAt                 *time.Time
	cancelAtPeriodEnd      bool
	entitlementExpiresAt   *time.Time
	version                int
	loadedVersion          int
	createdAt              time.Time
	updatedAt              time.Time
}

// NewFreeSubscription creates the lazily-materialized "free" shadow row
// for a user who has never checked out. The billing cycle follows the
// calendar month until a provider subscription exists.
func NewFreeSubscription(userID uint, sid string, periodStart, periodEnd time.Time) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if sid == "" {
		return nil, fmt.Errorf("subscription SID is required")
	}

	now := time.Now()
	return &Subscription{
		sid:                sid,
		userID:             userID,
		planID:             plan.FreePlanID,
		status:             vo.StatusActive,
		currentPeriodStart: periodStart,
		currentPeriodEnd:   periodEnd,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence.
func ReconstructSubscription(
	id uint,
	sid string,
	userID uint,
	planID string,
	status vo.SubscriptionStatus,
	providerCustomerID, providerSubscriptionID string,
	currentPeriodStart, currentPeriodEnd time.Time,
	renewsAt, endsAt *time.Time,
	cancelAtPeriodEnd bool,
	entitlementExpiresAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}

	return &Subscription{
		id:                     id,
		sid:                    sid,
		userID:                 userID,
		planID:                 planID,
		status:                 status,
		providerCustomerID:     providerCustomerID,
		providerSubscriptionID: providerSubscriptionID,
		currentPeriodStart:     currentPeriodStart,
		currentPeriodEnd:       currentPeriodEnd,
		renewsAt:               renewsAt,
		endsAt:                 endsAt,
		cancelAtPeriodEnd:      cancelAtPeriodEnd,
		entitlementExpiresAt:   entitlementExpiresAt,
		version:                version,
		loadedVersion:          version,
		createdAt:              createdAt,
		updatedAt:              updatedAt,
	}, nil
}

// ID returns the subscription ID.
func (s *Subscription) ID() uint { return s.id }

// SID returns the Stripe-style subscription identifier.
func (s *Subscription) SID() string { return s.sid }

// UserID returns the owning user ID.
func (s *Subscription) UserID() uint { return s.userID }

// PlanID returns the stored plan id.
func (s *Subscription) PlanID() string { return s.planID }

// Status returns the provider-reported status.
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }

// ProviderCustomerID returns the external customer id.
func (s *Subscription) ProviderCustomerID() string { return s.providerCustomerID }

// ProviderSubscriptionID returns the external subscription id.
func (s *Subscription) ProviderSubscriptionID() string { return s.providerSubscriptionID }

// CurrentPeriodStart returns the current billing period start.
func (s *Subscription) CurrentPeriodStart() time.Time { return s.currentPeriodStart }

// CurrentPeriodEnd returns the current billing period end.
func (s *Subscription) CurrentPeriodEnd() time.Time { return s.currentPeriodEnd }

// RenewsAt returns the next renewal time, if any.
func (s *Subscription) RenewsAt() *time.Time { return s.renewsAt }

// EndsAt returns the scheduled end time, if any.
func (s *Subscription) EndsAt() *time.Time { return s.endsAt }

// CancelAtPeriodEnd reports whether cancellation is scheduled for period end.
func (s *Subscription) CancelAtPeriodEnd() bool { return s.cancelAtPeriodEnd }

// EntitlementExpiresAt returns the authoritative access cutoff, if set.
func (s *Subscription) EntitlementExpiresAt() *time.Time { return s.entitlementExpiresAt }

// Version returns the aggregate version for optimistic locking.
func (s *Subscription) Version() int { return s.version }

// LoadedVersion returns the version the aggregate carried when it was
// read from persistence. Updates guard on this value, not version-1: a
// single event application may mutate the aggregate more than once.
func (s *Subscription) LoadedVersion() int { return s.loadedVersion }

// CreatedAt returns when the subscription was created.
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the subscription was last updated.
func (s *Subscription) UpdatedAt() time.Time { return s.updatedAt }

// SetID sets the subscription ID after the insert (only for persistence
// layer use). The stored row now carries the current version, so that is
// what later updates guard on.
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	s.loadedVersion = s.version
	return nil
}

// EffectivePlanID resolves the plan that actually governs access at the
// given instant. A past entitlement expiry overrides the stored status and
// forces free-tier treatment; otherwise access follows the status.
func (s *Subscription) EffectivePlanID(now time.Time) string {
	if s.entitlementExpiresAt != nil && !s.entitlementExpiresAt.After(now) {
		return plan.FreePlanID
	}
	if s.status.GrantsAccess() {
		return plan.NormalizePlanID(s.planID)
	}
	// A set-but-future expiry keeps access alive even through a canceled
	// or paused status: access continues until that instant, not until
	// the next usage check.
	if s.entitlementExpiresAt != nil && s.entitlementExpiresAt.After(now) {
		return plan.NormalizePlanID(s.planID)
	}
	return plan.FreePlanID
}

// HasPaidAccess reports whether the subscription grants a non-free plan
// at the given instant.
func (s *Subscription) HasPaidAccess(now time.Time) bool {
	return s.EffectivePlanID(now) != plan.FreePlanID
}

// UpdateFromProvider applies provider-reported state during an upsert.
func (s *Subscription) UpdateFromProvider(
	planID string,
	status vo.SubscriptionStatus,
	customerID, subscriptionID string,
	periodStart, periodEnd time.Time,
	renewsAt, endsAt *time.Time,
) error {
	if planID == "" {
		return fmt.Errorf("plan ID is required")
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid subscription status: %s", status)
	}

	s.planID = plan.NormalizePlanID(planID)
	s.status = status
	if customerID != "" {
		s.providerCustomerID = customerID
	}
	if subscriptionID != "" {
		s.providerSubscriptionID = subscriptionID
	}
	if !periodStart.IsZero() {
		s.currentPeriodStart = periodStart
	}
	if !periodEnd.IsZero() {
		s.currentPeriodEnd = periodEnd
	}
	s.renewsAt = renewsAt
	s.endsAt = endsAt
	s.touch()
	return nil
}

// ClearEntitlementExpiry removes the access cutoff, e.g. after a renewal
// or resume event.
func (s *Subscription) ClearEntitlementExpiry() {
	s.entitlementExpiresAt = nil
	s.cancelAtPeriodEnd = false
	s.touch()
}

// ScheduleCancellation marks the subscription to end at the given instant.
// Access must continue until exactly that time.
func (s *Subscription) ScheduleCancellation(at time.Time) {
	s.cancelAtPeriodEnd = true
	s.entitlementExpiresAt = &at
	s.status = vo.StatusCanceled
	s.touch()
}

// CancelImmediately revokes paid access as of now.
func (s *Subscription) CancelImmediately(now time.Time) {
	s.cancelAtPeriodEnd = false
	s.entitlementExpiresAt = &now
	s.status = vo.StatusCanceled
	s.touch()
}

// Pause marks the subscription paused by the provider.
func (s *Subscription) Pause() {
	s.status = vo.StatusPaused
	s.touch()
}

// Resume restores an active status and clears any scheduled cutoff.
func (s *Subscription) Resume() {
	s.status = vo.StatusActive
	s.ClearEntitlementExpiry()
}

// MarkExpired applies a provider "expired" event. It is ignored when the
// stored entitlement expiry is still in the future, which guards against
// out-of-order webhook delivery re-downgrading a user who already
// renewed. Returns whether the event was applied.
func (s *Subscription) MarkExpired(now time.Time) bool {
	if s.entitlementExpiresAt != nil && s.entitlementExpiresAt.After(now) {
		return false
	}
	s.status = vo.StatusExpired
	if s.entitlementExpiresAt == nil {
		s.entitlementExpiresAt = &now
	}
	s.touch()
	return true
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now()
	s.version++
}
